package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/LamGC/Auto-Musician/internal/config"
	"github.com/LamGC/Auto-Musician/internal/login"
	"github.com/LamGC/Auto-Musician/internal/netease"
	"github.com/LamGC/Auto-Musician/internal/store"
	"github.com/LamGC/Auto-Musician/internal/tasks"
	"github.com/LamGC/Auto-Musician/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if os.IsNotExist(err) {
		log.Printf("Config file %s does not exist, running with defaults", *configPath)
		cfg = config.Default()
	} else if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}

	accounts, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open account store: %v", err)
	}

	client := netease.NewClient(cfg.API)
	monitor := login.NewMonitor(client, accounts, cfg.Login.PollInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := tasks.NewRunner(accounts)
	runner.Register(tasks.NewSignIn(client), cfg.Tasks.SignInInterval)
	runner.Register(tasks.NewRewardCollector(client), cfg.Tasks.RewardInterval)
	go runner.Start(ctx)

	server := ws.NewServer(cfg, monitor)
	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
