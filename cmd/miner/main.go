package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"ARMTS/internal/di"
	"ARMTS/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "YAML config file; defaults and ARMTS_* env vars when empty")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx := context.Background()
	app, err := di.InitializeApp(ctx, cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	rep, err := app.Run(ctx)
	if err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}

	if *asJSON {
		if err := writeJSON(os.Stdout, rep); err != nil {
			log.Fatalf("encode report: %v", err)
		}
		return
	}
	fmt.Print(renderReport(rep))
}
