// Package main is the entry point for the chordid API server
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/james-see/chordid/pkg/api"
	"github.com/james-see/chordid/pkg/config"
	"github.com/james-see/chordid/pkg/harmony"
	"github.com/james-see/chordid/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	port := flag.Int("port", cfg.ServerPort, "Server port")
	keyName := flag.String("key", cfg.Key, "Default key name or id")
	flag.Parse()

	logger.SetLevel(cfg.LogLevel)
	key, err := harmony.ParseKey(*keyName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Key error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting chordid API server on port %d...\n", *port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	if err := api.StartServer(*port, api.WithDefaultKey(key)); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
