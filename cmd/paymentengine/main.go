/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payment engine, either as an HTTP server
  (serve) or as a one-shot CSV batch run (process). Mirrors the two
  entry points original_source/src/cmd/{serve,process_csv}.rs expose
  off of one process_transaction.rs engine.

COMMANDS:
  paymentengine serve [-config path] [-port 8080]
      Starts the HTTP API and serves until SIGINT/SIGTERM.

  paymentengine process [-config path] <transactions.csv>
      Applies every row in the CSV in order and writes the resulting
      four-column account listing to stdout.

CONFIGURATION:
  -config points at an optional YAML file (see config.Load); the
  PAYMENTENGINE_ prefixed environment overlay always applies on top,
  so a deployment can run off env vars alone with no file at all.

GRACEFUL SHUTDOWN (serve only):
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Exit

SEE ALSO:
  - api/server.go: router configuration
  - batch/batch.go: CSV processing
  - config/config.go: configuration loading
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dskart/payment-engine/api"
	"github.com/dskart/payment-engine/batch"
	"github.com/dskart/payment-engine/config"
	"github.com/dskart/payment-engine/ledger"
)

const envPrefix = "PAYMENTENGINE_"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "process":
		runProcess(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: paymentengine <serve|process> [flags]")
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to an optional YAML config file")
	port := fs.Int("port", 8080, "HTTP server port")
	fs.Parse(args)

	cfg, err := config.Load(*configPath, envPrefix)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	s, err := cfg.NewStore()
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	app := ledger.NewApp(s)
	router := api.NewRouter(api.NewHandler(app))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("payment engine listening on :%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func runProcess(args []string) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	configPath := fs.String("config", "", "path to an optional YAML config file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: paymentengine process [-config path] <transactions.csv>")
		os.Exit(1)
	}
	csvPath := fs.Arg(0)

	cfg, err := config.Load(*configPath, envPrefix)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	s, err := cfg.NewStore()
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", csvPath, err)
	}
	defer f.Close()

	app := ledger.NewApp(s)
	session := app.NewSession(log.Default())
	ctx := context.Background()

	if err := batch.Process(ctx, session, f); err != nil {
		log.Fatalf("Failed to process transactions: %v", err)
	}
	if err := batch.Export(ctx, session, os.Stdout); err != nil {
		log.Fatalf("Failed to export accounts: %v", err)
	}
}
