package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"devtycoon.app/internal/server"
)

func main() {
	var (
		addr        = flag.String("addr", ":5000", "http listen address")
		definitions = flag.String("definitions", "", "path to a catalog YAML replacing the built-in contracts and store items")
		journalDir  = flag.String("journal", "./data/journal", "action journal directory")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cat := server.DefaultCatalog()
	if p := strings.TrimSpace(*definitions); p != "" {
		var err error
		cat, err = server.LoadCatalog(p)
		if err != nil {
			logger.Fatalf("load catalog: %v", err)
		}
	}
	logger.Printf("catalog: %d contracts, %d store items, digest=%s", len(cat.Contracts), len(cat.Items), cat.Digest()[:12])

	repo, err := server.OpenRepositoryFromEnv(logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer repo.Close()

	var journal *server.Journal
	if envBool("DEVTYCOON_ENABLE_JOURNAL", true) && strings.TrimSpace(*journalDir) != "" {
		journal = server.NewJournal(*journalDir, "actions")
		defer journal.Close()
	} else {
		logger.Printf("action journal disabled")
	}

	game, err := server.NewGame(server.GameOptions{
		Catalog: cat,
		Repo:    repo,
		Journal: journal,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatalf("game: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           server.NewServer(game, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
