// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "listarr",
		Short: "Synchronize douban lists with Radarr, Sonarr and Lidarr",
		Long: `listarr crawls a user's douban activity lists, resolves each entry
against its detail page and adds the results to Radarr, Sonarr or Lidarr,
tagging items with their watch status.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(RunSyncCommand())
	rootCmd.AddCommand(RunGenerateConfigCommand())
	rootCmd.AddCommand(RunVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
