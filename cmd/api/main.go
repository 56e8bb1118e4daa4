package main

import (
	"context"
	"flag"
	"log"

	"github.com/hibiken/asynq"

	"autograder/internal/app"
	"autograder/internal/config"
	httpSrv "autograder/internal/http"
	"autograder/internal/migrations"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.APIToken == "" {
		log.Fatal("API_TOKEN is not set")
	}

	// Run embedded migrations (idempotent)
	if cfg.DatabaseURL != "" {
		if err := migrations.Run(cfg.DatabaseURL); err != nil {
			log.Fatal(err)
		}
	}

	// Start services
	a, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	s := &httpSrv.Server{Grading: a, DefaultRubric: cfg.Rubric}
	if a.DB != nil {
		s.Ping = a.DB.PingContext
	}
	if cfg.RedisAddr != "" {
		asq := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer asq.Close()
		s.Queue = asq
	}
	srv := httpSrv.NewServer(cfg.ListenAddr, cfg.APIToken, s)
	log.Println("api: listening on", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
