package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kinetic-dev/kinetic/internal/config"
	"github.com/kinetic-dev/kinetic/internal/errors"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default kinetic.json",
		Long: `Write a kinetic.json with default settings into the given
directory (default: current directory).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path := filepath.Join(dir, config.ConfigFileName)

			if !force {
				if _, err := os.Stat(path); err == nil {
					return errors.Newf(errors.CategoryCLI, "%s already exists", path).
						WithSuggestion("Pass --force to overwrite")
				}
			}

			cfg := config.New()
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing kinetic.json")

	return cmd
}
