package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/ai-stockassistant/internal/domain/advisor"
	"github.com/yanqian/ai-stockassistant/internal/infra/config"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "stock-assistant",
		Short:         "AI stock assistant backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newAskCmd(),
		newTokenCmd(),
		newCacheCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, cleanup, err := initializeApp()
			if err != nil {
				return fmt.Errorf("failed to wire application: %w", err)
			}
			defer cleanup()

			return app.Run(ctx)
		},
	}
}

func newAskCmd() *cobra.Command {
	var (
		conversationID string
		verbose        bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask the assistant a single stock question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !verbose && os.Getenv("LOG_LEVEL") == "" {
				_ = os.Setenv("LOG_LEVEL", "error")
			}
			svc, cleanup, err := initializeAdvisor()
			if err != nil {
				return fmt.Errorf("failed to wire advisor: %w", err)
			}
			defer cleanup()

			resp, err := svc.Ask(cmd.Context(), advisor.Request{
				Query:          strings.Join(args, " "),
				ConversationID: conversationID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderAnswer(resp))
			return nil
		},
	}
	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation id to append to")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "keep service logs on stdout")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for API clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(subject) == "" {
				return errors.New("--subject is required")
			}
			tokens, err := initializeTokenService()
			if err != nil {
				return fmt.Errorf("failed to wire token service: %w", err)
			}
			token, expiresAt, err := tokens.Issue(cmd.Context(), subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderToken(subject, token, expiresAt))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "user id the token is issued to")
	return cmd
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the SQLite response cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openSQLiteStore(cfg.Cache.SQLite.Path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entries: %d\nHits:    %d\nMisses:  %d\n", stats.Entries, stats.Hits, stats.Misses)
			return nil
		},
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openSQLiteStore(cfg.Cache.SQLite.Path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			removed, err := store.Prune(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries\n", removed)
			return nil
		},
	}

	cmd.AddCommand(statsCmd, pruneCmd)
	return cmd
}
