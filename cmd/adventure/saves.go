package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/adventure-engine/internal/logger"
	istorage "github.com/jwebster45206/adventure-engine/internal/storage"
)

func newSavesCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "saves",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			log, _ := logger.SetupWriter(cfg, cmd.ErrOrStderr())
			st, err := openStorage(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				_ = st.Close()
			}()

			names, err := st.ListUnits(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No saved sessions.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios [dir]",
		Short: "List the scenario and player descriptions in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "scenarios"
			if len(args) == 1 {
				dir = args[0]
			}
			return listDescriptions(cmd.OutOrStdout(), dir)
		},
	}
}

func listDescriptions(out io.Writer, dir string) error {
	found, err := istorage.ListDescriptions(dir)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintf(out, "No descriptions found in %s.\n", dir)
		return nil
	}
	for _, name := range istorage.SortedKeys(found) {
		fmt.Fprintf(out, "  %s (%s)\n", found[name].Title, name)
	}
	return nil
}
