package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settings resolves flags, CLINICCTL_* / plain env vars and an optional config file.
type settings struct {
	v *viper.Viper
}

func newSettings() *settings {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database-url", "CLINICCTL_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("admin-email", "ADMIN_EMAIL")
	_ = v.BindEnv("admin-password", "ADMIN_PASSWORD")
	_ = v.BindEnv("clinic-tz", "CLINIC_TZ")
	v.SetDefault("clinic-tz", "UTC")
	v.SetDefault("log-level", "info")
	return &settings{v: v}
}

func (s *settings) load(path string) error {
	if path == "" {
		return nil
	}
	s.v.SetConfigFile(path)
	return s.v.ReadInConfig()
}

func (s *settings) databaseURL() (string, error) {
	url := strings.TrimSpace(s.v.GetString("database-url"))
	if url == "" {
		return "", errors.New("database url is required (--database-url or DATABASE_URL)")
	}
	return url, nil
}

func (s *settings) logger() *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(s.v.GetString("log-level"), "debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (s *settings) open(ctx context.Context) (*db.Pool, error) {
	url, err := s.databaseURL()
	if err != nil {
		return nil, err
	}
	return db.Open(ctx, url)
}

func newRootCmd() *cobra.Command {
	s := newSettings()
	var configFile string

	root := &cobra.Command{
		Use:           "clinicctl",
		Short:         "Operator tooling for the clinic scheduling services",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return s.load(configFile)
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "optional config file (yaml, json, toml or .env)")
	root.PersistentFlags().String("database-url", "", "Postgres connection string")
	root.PersistentFlags().String("log-level", "info", "info or debug")

	root.AddCommand(newMigrateCmd(s))
	root.AddCommand(newSeedCmd(s))
	return root
}
