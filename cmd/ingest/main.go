package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hydroluxe/prodkb/backend/internal/ingest"
	"github.com/hydroluxe/prodkb/backend/internal/server"
	"github.com/hydroluxe/prodkb/backend/internal/util"
	"github.com/hydroluxe/prodkb/backend/pkg/graph"
	"github.com/hydroluxe/prodkb/backend/pkg/logger"
	"github.com/hydroluxe/prodkb/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	root := flag.String("root", "", "directory of source documents to ingest")
	output := flag.String("output", "data_storage", "directory for derived artifacts")
	limit := flag.Int("limit", 0, "stop after N files (0 = all)")
	dryRun := flag.Bool("dry-run", false, "list files without writing anything")
	resume := flag.Bool("resume", util.GetEnvBool("RESUME", true), "skip documents that already have chunks")
	force := flag.Bool("force", util.GetEnvBool("FORCE_REINGEST", false), "re-ingest documents even when already present")
	flag.Parse()

	if *root == "" {
		fmt.Fprintln(os.Stderr, "ingest: -root is required")
		flag.Usage()
		os.Exit(2)
	}

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	graphClient, err := graph.NewClientFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to connect to Neo4j", "err", err)
		os.Exit(1)
	}
	defer graphClient.Close(context.Background())

	embedDim := util.GetEnvInt("AI_EMBED_DIM", 1024)
	if err := graphClient.EnsureSchema(ctx, embedDim); err != nil {
		logger.Error("Failed to ensure graph schema", "err", err)
		os.Exit(1)
	}

	runner := &ingest.Runner{
		Graph:          graphClient,
		AI:             server.NewAIClient(),
		EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
	}
	if util.GetEnvBool("PROGRESS", true) {
		runner.OnProgress = func(stage, name string, done, total int) {
			fmt.Fprintf(os.Stderr, "\r%s %s (%d/%d)", stage, name, done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	stats, err := runner.Run(ctx, ingest.Options{
		Root:       *root,
		OutputRoot: *output,
		Limit:      *limit,
		DryRun:     *dryRun,
		Resume:     *resume,
		Force:      *force,
	})
	if err != nil {
		logger.Error("Ingest failed", "err", err)
		os.Exit(1)
	}

	logger.Info(
		"Ingest finished",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"unknown", stats.Unknown,
		"chunks", stats.Chunks,
		"errors", len(stats.Errors),
	)
	for _, e := range stats.Errors {
		logger.Warn("File failed", "err", e)
	}
}
