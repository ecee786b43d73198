package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"devtycoon.app/internal/config"
	"devtycoon.app/internal/gameapi"
	"devtycoon.app/internal/transport/viewer"
	"devtycoon.app/internal/ui"
)

func main() {
	var (
		configPath = flag.String("config", "", "client config YAML (optional)")
		serverURL  = flag.String("server", "", "game server base URL (overrides config and "+config.EnvServerURL+")")
		poll       = flag.Duration("poll", 0, "state poll interval (overrides config)")
		viewAddr   = flag.String("view", "", "serve the live page on this address, e.g. 127.0.0.1:7070 (overrides config)")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[client] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if s := strings.TrimSpace(*serverURL); s != "" {
		cfg.ServerURL = s
	}
	if *poll > 0 {
		cfg.PollInterval = *poll
	}
	if s := strings.TrimSpace(*viewAddr); s != "" {
		cfg.ViewAddr = s
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	api, err := gameapi.New(gameapi.Config{BaseURL: cfg.ServerURL})
	if err != nil {
		logger.Fatalf("game api: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	lines := readLines(os.Stdin)
	term := &terminal{out: os.Stdout, lines: lines}

	c, err := ui.New(ui.Config{
		API:              api,
		Confirm:          term,
		Logger:           logger,
		PollInterval:     cfg.PollInterval,
		FeedbackCapacity: cfg.FeedbackCapacity,
	})
	if err != nil {
		logger.Fatalf("ui: %v", err)
	}

	if cfg.ViewAddr != "" {
		v := viewer.NewServer(c, logger)
		c.Subscribe(v.Publish)
		srv := &http.Server{Addr: cfg.ViewAddr, Handler: v.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			<-ctx.Done()
			ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel2()
			_ = srv.Shutdown(ctx2)
		}()
		go func() {
			logger.Printf("viewer on http://%s/", cfg.ViewAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("viewer: %v", err)
			}
		}()
	}

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	logger.Printf("connecting to %s", cfg.ServerURL)
	select {
	case <-c.Started():
	case err := <-runErr:
		logger.Fatalf("client stopped: %v", err)
	}
	term.show(ctx, c)
	fmt.Fprintln(term.out, helpText)

	for {
		fmt.Fprint(term.out, "> ")
		var line string
		select {
		case <-ctx.Done():
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = l
		}
		if !term.exec(ctx, c, line) {
			return
		}
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

func readLines(f *os.File) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			out <- strings.TrimSpace(sc.Text())
		}
	}()
	return out
}
