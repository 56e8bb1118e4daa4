package main

import (
	"context"
	"flag"
	"log"

	"autograder/internal/app"
	"autograder/internal/config"
	"autograder/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.RedisAddr == "" {
		log.Fatal("REDIS_ADDR is not set")
	}

	// Start services
	a, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()
	if err := worker.Run(cfg.RedisAddr, a); err != nil {
		log.Fatal(err)
	}
}
