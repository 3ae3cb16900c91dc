package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"refinery-ops/internal/auth"
	"refinery-ops/internal/platform/postgres"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if cfg.DatabaseURL == "" {
				return errors.New("config: DATABASE_URL is required")
			}
			db, err := postgres.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			applied, err := postgres.Migrate(cmd.Context(), db, logger)
			if err != nil {
				return err
			}
			logger.Info("migrations applied", zap.Int("count", applied))
			return nil
		},
	}
}

func newDigestCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Send the operations digest once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if cfg.DatabaseURL == "" {
				return errors.New("config: DATABASE_URL is required")
			}
			a, err := buildApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if a.channel == nil {
				return errors.New("digest: no notification channel configured")
			}
			job, err := a.digestJob(cfg, logger)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), digestRunTimeout)
			defer cancel()
			return job.Run(ctx)
		},
	}
}

func newTokenCommand(root *rootOptions) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := root.load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("config: AUTH_JWT_SECRET is required")
			}
			normalized, ok := auth.NormalizeRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			token, err := auth.IssueJWT([]byte(cfg.JWTSecret), subject, normalized, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject (profile id)")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleViewer), "viewer, operator or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
