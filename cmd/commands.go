package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/wealthquest-backend/internal/app"
	"github.com/yungbote/wealthquest-backend/internal/data/repos"
	"github.com/yungbote/wealthquest-backend/internal/services"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and scheduler",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		store, err := app.OpenStore(cfg, log)
		if err != nil {
			return err
		}
		return store.Close()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert the built-in lessons, quizzes and challenges",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		store, err := app.OpenStore(cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()

		db := store.DB()
		catalog := services.NewCatalogService(db, log, repos.NewLessonRepo(db, log), repos.NewQuizRepo(db, log), repos.NewChallengeRepo(db, log))
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		if err := catalog.Seed(ctx); err != nil {
			return err
		}
		log.Info("Catalog seeded")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	a, err := app.New(cfg, log)
	if err != nil {
		log.Sync()
		return err
	}
	defer a.Close()
	a.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- a.Run(flagAddr) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Info("Shutting down")
		return nil
	}
}
