package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tabitabi/shiori/internal/client/api"
	"github.com/tabitabi/shiori/internal/client/cli"
	"github.com/tabitabi/shiori/internal/client/history"
	"github.com/tabitabi/shiori/internal/client/iocli"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "shiori-client.db", "Path to local history database")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	io := iocli.NewStdio()
	ctx := context.Background()

	args := flag.Args()
	if len(args) == 0 {
		apiClient := api.NewClient(*serverURL)
		cli.New(apiClient, nil, io).PrintUsage()
		os.Exit(1)
	}

	historyStore, err := history.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open history database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := historyStore.Close(); err != nil {
			slog.Error("failed to close history database", "error", err)
		}
	}()

	apiClient := api.NewClient(*serverURL)
	runner := cli.New(apiClient, historyStore, io)

	if err := runner.Run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("Shiori Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
