package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	istorage "github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/storage"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check scenario descriptions, player descriptions and saved sessions",
		Long: `Validates each file without contacting the generation service.
JSON files with a game_state field are checked as saved sessions; everything
else is checked as a scenario or player description.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if err := validateFile(cmd.OutOrStdout(), path); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Validation failed: %v\n", err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files are invalid", failed, len(args))
			}
			return nil
		},
	}
}

type validator struct {
	errors []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func validateFile(out io.Writer, path string) error {
	fmt.Fprintf(out, "Validating %s...\n", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	v := &validator{}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" && !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", path)
	}
	if ext == ".json" && isUnit(data) {
		v.validateUnit(path, data)
	} else {
		v.validateDescription(path, data, ext)
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", path, strings.Join(v.errors, "\n"))
	}
	fmt.Fprintf(out, "%s is valid!\n", path)
	return nil
}

func isUnit(data []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	_, ok := fields["game_state"]
	return ok
}

func (v *validator) validateUnit(path string, data []byte) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if _, _, _, ok := storage.ParseUnitName(name); !ok {
		v.addError("  - file name %q is not <character>-<yyyymmdd-hhmmss>[-n]", name)
	}
	unit, err := storage.DecodeUnit(data)
	if err != nil {
		v.addError("  - %v", err)
		return
	}
	if unit.Character.Name != unit.GameState.Player.Name {
		v.addError("  - character %q does not match game state player %q", unit.Character.Name, unit.GameState.Player.Name)
	}
	if n := len(unit.Context); n > 0 && strings.TrimSpace(unit.Context[n-1].Output) == "" {
		v.addError("  - last turn has no narration")
	}
}

func (v *validator) validateDescription(path string, data []byte, ext string) {
	if ext == ".yaml" || ext == ".yml" || ext == ".json" {
		// Unknown keys are usually a misspelled description field.
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		var doc istorage.Description
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			v.addError("  - %v", err)
			return
		}
	}
	if _, err := istorage.LoadDescription(path); err != nil {
		v.addError("  - %v", err)
	}
}
