// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/listarr/listarr/internal/config"
)

func RunGenerateConfigCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Write a commented default config.toml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := filepath.Join(dir, "config.toml")
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write config.toml into")

	return cmd
}
