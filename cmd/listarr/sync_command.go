// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/listarr/listarr/internal/buildinfo"
	"github.com/listarr/listarr/internal/config"
	"github.com/listarr/listarr/internal/logger"
	"github.com/listarr/listarr/internal/sync"
)

func RunSyncCommand() *cobra.Command {
	var (
		configPath string
		mode       string
		listFile   string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appCfg, err := config.New(configPath, buildinfo.Version)
			if err != nil {
				return err
			}

			// Flags override the configured mode for one-off runs.
			if mode != "" {
				appCfg.Config.Douban.Mode = mode
			}
			if listFile != "" {
				appCfg.Config.Douban.ListFilePath = listFile
			}
			if err := appCfg.Config.Validate(); err != nil {
				return err
			}

			logger.Setup(appCfg.Config)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info().Str("version", buildinfo.Version).Str("config", appCfg.ConfigPath()).Msg("starting listarr")

			svc := sync.NewFromConfig(appCfg.Config, appCfg.ListsDir())
			if _, err := svc.Run(ctx); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file or directory")
	cmd.Flags().StringVar(&mode, "mode", "", "override run mode (scrape_and_add, scrape_only, add_from_file)")
	cmd.Flags().StringVar(&listFile, "list-file", "", "entry_details list file to replay (with --mode add_from_file)")

	return cmd
}
