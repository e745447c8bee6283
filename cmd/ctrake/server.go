package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nishad/ctrake/internal/api"
	"github.com/nishad/ctrake/internal/metrics"
	"github.com/nishad/ctrake/internal/search"
	"github.com/nishad/ctrake/internal/service"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the ctrake API server",
	Long: `Start the ctrake API server for programmatic access to loaded studies.

The server provides:
- keyword and filter search under /api/v1/search, with CSV download
- study detail, listing, condition and sponsor endpoints
- Prometheus metrics at /metrics
- CORS support for web applications`,
	Example: `  ctrake server
  ctrake server --port 3000
  ctrake server --host 0.0.0.0 --enable-cors=false`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

var (
	serverPort       int
	serverHost       string
	serverDBPath     string
	serverIndexPath  string
	serverEnableCORS bool
)

func init() {
	serverCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "Port to listen on (default from config)")
	serverCmd.Flags().StringVar(&serverHost, "host", "", "Host to bind to (default from config)")
	serverCmd.Flags().StringVar(&serverDBPath, "db", "", "Database path (default from config)")
	serverCmd.Flags().StringVar(&serverIndexPath, "index", "", "Index path (default from config)")
	serverCmd.Flags().BoolVar(&serverEnableCORS, "enable-cors", true, "Enable CORS for web access")
}

func runServer(cmd *cobra.Command, args []string) error {
	if serverDBPath != "" {
		cfg.Database.Path = serverDBPath
	}
	if serverIndexPath != "" {
		cfg.Search.IndexPath = serverIndexPath
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("enable-cors") {
		cfg.Server.EnableCORS = serverEnableCORS
	}

	db, err := openDatabase(false)
	if err != nil {
		return err
	}
	defer db.Close()

	// Search endpoints need the index even when loading skips it.
	index, err := search.InitBleveIndex(cfg.Search.IndexPath)
	if err != nil {
		return fmt.Errorf("failed to open search index: %w", err)
	}
	defer index.Close()

	printInfo("Database: %s", cfg.Database.Path)
	printInfo("Index: %s", cfg.Search.IndexPath)

	server := api.NewServer(&api.Config{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		EnableCORS: cfg.Server.EnableCORS,
	}, api.Deps{
		Search:   service.NewSearchService(db, index),
		Metadata: service.NewMetadataService(db),
		Logger:   logger,
		Metrics:  metrics.New(),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if cfg.Server.EnableCORS {
			printInfo("CORS enabled for web access")
		}
		printSuccess("Server ready at http://%s", server.Addr())
		serverErr <- server.Start()
	}()

	select {
	case <-sigChan:
		printInfo("\nShutting down server...")
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("server error")
		}
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	printSuccess("Server stopped gracefully")
	return nil
}
