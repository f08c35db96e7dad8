package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quayside/quayside/internal/config"
	"github.com/quayside/quayside/internal/db"
	"github.com/quayside/quayside/internal/notify"
	"github.com/quayside/quayside/internal/notify/discord"
	"github.com/quayside/quayside/internal/notify/slack"
	"github.com/quayside/quayside/internal/server"
	"github.com/quayside/quayside/internal/taskgen"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Quayside API server",
		Long:  "Serves the REST API and the board pages, and runs the scheduled digest and normalization sweep.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quayside.yaml", "path to Quayside config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	notifier, err := buildNotifier(cmd, cfg)
	if err != nil {
		return err
	}
	defer notifier.Close()

	var generator taskgen.Generator
	if cfg.Generator.APIKey != "" {
		generator = taskgen.NewClient(cfg.Generator)
	} else {
		fmt.Fprintln(out, "No generator API key configured; task generation disabled")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx, server.Opts{
		DB:        gormDB,
		Config:    cfg,
		Generator: generator,
		Notifier:  notifier,
		Out:       out,
	})
}

// buildNotifier wires the chat adapters the config enables. A config
// with no chat tokens yields a notifier that drops everything.
func buildNotifier(cmd *cobra.Command, cfg *config.Config) (*notify.Notifier, error) {
	out := cmd.OutOrStdout()
	var adapters []notify.Adapter

	if cfg.Notify.SlackToken != "" {
		a, err := slack.New(slack.AdapterOpts{
			BotToken:  cfg.Notify.SlackToken,
			ChannelID: cfg.Notify.SlackChannel,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
		fmt.Fprintln(out, "Slack notifications enabled")
	}

	if cfg.Notify.DiscordToken != "" {
		a, err := discord.New(discord.AdapterOpts{
			BotToken:  cfg.Notify.DiscordToken,
			ChannelID: cfg.Notify.DiscordChannel,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
		fmt.Fprintln(out, "Discord notifications enabled")
	}

	return notify.New(adapters...), nil
}
