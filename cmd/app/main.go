package main

import (
	"context"
	"flag"
	"log"
	"os"

	"DemandCast/internal/di"
	"DemandCast/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	oneshot := flag.Bool("oneshot", false, "run one forecast with the configured parameters and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if *oneshot {
		if err := app.RunOnce(context.Background()); err != nil {
			log.Printf("forecast run failed: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
