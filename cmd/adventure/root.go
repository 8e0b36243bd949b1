package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/adventure-engine/internal/config"
	"github.com/jwebster45206/adventure-engine/internal/credentials"
	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/logger"
	"github.com/jwebster45206/adventure-engine/internal/services"
	istorage "github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/storage"
)

// flags holds command-line values. Only flags the user actually set override
// the environment.
type flags struct {
	scenario string
	player   string
	resume   string
	endpoint string
	provider string
	model    string
	apiKey   string
	vault    string
	secret   string
	saveDir  string
	redis    string
	debug    bool
	selfPlay bool
	turns    int
	plain    bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "adventure",
		Short: "Play a turn-based text adventure narrated by a language model",
		Long: `Starts a new adventure from a scenario description, or resumes a saved one.
Dice are rolled locally; the model plans actions, narrates and keeps the game state.

Examples:
	adventure --scenario scenarios/goblin_cave.yaml --player heroes/mira.yaml
	adventure --resume mira-20240102-030405
	adventure --scenario cave.txt --self-play --turns 5 --plain`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := play(cmd, f)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			return err
		},
	}

	fl := root.Flags()
	fl.StringVarP(&f.scenario, "scenario", "s", "", "Scenario description file (.yaml, .json or plain text)")
	fl.StringVarP(&f.player, "player", "p", "", "Player character description file")
	fl.StringVarP(&f.resume, "resume", "r", "", "Resume a saved session by name")
	fl.BoolVar(&f.debug, "debug", false, "Start with debug logging enabled")
	fl.BoolVar(&f.selfPlay, "self-play", false, "Let the model generate the player's commands")
	fl.IntVar(&f.turns, "turns", 10, "Number of self-play turns")
	fl.BoolVar(&f.plain, "plain", false, "Use a line-based prompt instead of the full-screen console")
	addServiceFlags(root, f)

	root.AddCommand(newValidateCmd(), newSavesCmd(f), newScenariosCmd())
	return root
}

// addServiceFlags registers the flags shared by every command that talks to
// the generation service or storage.
func addServiceFlags(cmd *cobra.Command, f *flags) {
	fl := cmd.PersistentFlags()
	fl.StringVar(&f.provider, "provider", "", "Generation provider: azure, openai, anthropic or gemini")
	fl.StringVar(&f.endpoint, "endpoint", "", "Generation service endpoint URL")
	fl.StringVar(&f.model, "model", "", "Model or deployment name")
	fl.StringVar(&f.apiKey, "api-key", "", "API key (skips the secret lookup)")
	fl.StringVar(&f.vault, "vault", "", "Key vault holding the API key")
	fl.StringVar(&f.secret, "secret", "", "Secret name of the API key in the vault")
	fl.StringVar(&f.saveDir, "save-dir", "", "Directory for saved sessions")
	fl.StringVar(&f.redis, "redis", "", "Redis URL; saves go to Redis instead of the save directory")
}

// loadConfig reads the environment and applies the flags that were set.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("provider", &cfg.Provider, f.provider)
	set("endpoint", &cfg.Endpoint, f.endpoint)
	set("model", &cfg.Model, f.model)
	set("api-key", &cfg.APIKey, f.apiKey)
	set("vault", &cfg.VaultName, f.vault)
	set("secret", &cfg.SecretName, f.secret)
	set("save-dir", &cfg.SaveDir, f.saveDir)
	set("redis", &cfg.RedisURL, f.redis)
	if f.debug {
		cfg.SetLogLevel("debug")
	}
	return cfg, nil
}

func play(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	if f.scenario == "" && f.resume == "" {
		return fmt.Errorf("%w: --scenario or --resume is required", config.ErrMissingInput)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	console := !f.plain && !f.selfPlay
	logOut, closeLog, err := logWriter(cfg, console, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()
	log, level := logger.SetupWriter(cfg, logOut)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	apiKey, err := credentials.ResolveAPIKey(ctx, cfg.APIKey, secretProvider(cfg, log), cfg.VaultName, cfg.SecretName, log)
	if err != nil {
		return err
	}
	gen, err := services.NewGenerator(ctx, cfg, apiKey, log)
	if err != nil {
		return fmt.Errorf("failed to create generation service: %w", err)
	}
	if c, ok := gen.(io.Closer); ok {
		defer func() {
			_ = c.Close()
		}()
	}

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	opts := engine.DefaultOptions()
	opts.MaxOutputTokens = cfg.MaxOutputTokens
	opts.Temperature = cfg.Temperature
	opts.TopP = cfg.TopP
	opts.Storage = st
	opts.Debug = level
	opts.BaseLevel = cfg.LogLevel

	session, fresh, err := openSession(ctx, gen, st, f, opts, log)
	if err != nil {
		return err
	}
	o := engine.NewOrchestrator(session, gen, opts, log)
	log.Info("Session ready", "session_id", session.ID.String(), "character", session.Character.Name, "resumed", !fresh)

	out := cmd.OutOrStdout()
	switch {
	case f.selfPlay:
		return runSelfPlay(ctx, o, engine.NewSelfPlayer(gen, opts, log), fresh, f.turns, out)
	case f.plain:
		return runREPL(ctx, o, fresh, cmd.InOrStdin(), out)
	default:
		return runConsole(ctx, o, fresh)
	}
}

// logWriter keeps logs out of the full-screen console by sending them to the
// log file. Line-based modes log to stderr.
func logWriter(cfg *config.Config, console bool, stderr io.Writer) (io.Writer, func(), error) {
	if !console || cfg.LogFile == "" {
		return stderr, func() {}, nil
	}
	if dir := filepath.Dir(cfg.LogFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}

// secretProvider prefers an environment variable for the vault secret and
// falls back to Azure Key Vault.
func secretProvider(cfg *config.Config, log *slog.Logger) credentials.SecretProvider {
	if cfg.APIKey != "" {
		return nil
	}
	if _, ok := os.LookupEnv(credentials.EnvName(cfg.VaultName, cfg.SecretName)); ok {
		return credentials.NewEnvProvider()
	}
	kv, err := credentials.NewKeyVaultProvider()
	if err != nil {
		log.Warn("Key Vault unavailable, falling back to environment", "error", err)
		return credentials.NewEnvProvider()
	}
	return kv
}

func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
	if cfg.RedisURL != "" {
		rs, err := istorage.NewRedisStorage(cfg.RedisURL, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis storage: %w", err)
		}
		if err := rs.WaitForConnection(ctx, 5, time.Second); err != nil {
			_ = rs.Close()
			return nil, err
		}
		return rs, nil
	}
	fs := istorage.NewFileStorage(cfg.SaveDir, log)
	if err := fs.Ping(ctx); err != nil {
		return nil, err
	}
	return fs, nil
}

// openSession resumes f.resume or builds a new session from the scenario and
// player descriptions. fresh reports a new session that still needs its
// opening turn.
func openSession(ctx context.Context, gen services.Generator, st storage.Storage, f *flags, opts engine.Options, log *slog.Logger) (*engine.Session, bool, error) {
	if f.resume != "" {
		unit, err := st.LoadUnit(ctx, f.resume)
		if err != nil {
			return nil, false, fmt.Errorf("failed to resume %s: %w", f.resume, err)
		}
		s, err := engine.SessionFromUnit(unit, opts)
		if err != nil {
			return nil, false, fmt.Errorf("failed to resume %s: %w", f.resume, err)
		}
		return s, false, nil
	}

	scen, err := istorage.LoadDescription(f.scenario)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", config.ErrMissingInput, err)
	}
	var player string
	if f.player != "" {
		p, err := istorage.LoadDescription(f.player)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", config.ErrMissingInput, err)
		}
		player = p.Text
	}
	log.Info("Building starting game state", "scenario", scen.Title)
	s, err := engine.NewSession(ctx, gen, scen.Text, player, opts, log)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}
