package main

import (
	"context"
	"io"
	"log"
	"os"

	"freeradical-go/internal/cli"
	"freeradical-go/internal/config"
	"freeradical-go/internal/db"
	"freeradical-go/internal/logging"
	"freeradical-go/internal/session"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadClient()

	if cfg.Log.Dir != "" {
		cleanupLogs, err := logging.Setup(cfg.Log.Dir, cfg.Log.RetentionDays, io.Discard)
		if err != nil {
			log.Printf("logger setup failed: %v", err)
		} else {
			defer cleanupLogs()
		}
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}
	defer closeStore()

	app, err := cli.NewApp(cfg, store, os.Stdout, os.Stderr)
	if err != nil {
		log.Fatalf("client: %v", err)
	}
	if err := cli.NewRootCommand(app).ExecuteContext(ctx); err != nil {
		cli.ReportError(os.Stderr, err)
		closeStore()
		os.Exit(1)
	}
}

// openStore keeps the session in the SQLite file named by the config. A token
// given through the environment wins and is never written to disk.
func openStore(ctx context.Context, cfg config.ClientConfig) (session.Store, func(), error) {
	if cfg.Token != "" {
		store := &session.MemoryStore{}
		if err := store.Save(ctx, session.Credentials{Token: cfg.Token}); err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
	database, err := db.Open("file:" + cfg.SessionDB + "?_busy_timeout=5000")
	if err != nil {
		return nil, nil, err
	}
	store, err := session.NewSQLStore(database, os.Getenv("FREERADICAL_PROFILE"))
	if err != nil {
		_ = database.Close()
		return nil, nil, err
	}
	return store, func() { _ = database.Close() }, nil
}
