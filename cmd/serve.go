package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dangerclosesec/topo"
	"github.com/dangerclosesec/topo/internal/api"
	"github.com/dangerclosesec/topo/internal/metrics"
	"github.com/dangerclosesec/topo/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

var (
	serveFile        string
	serveAddr        string
	serveMetricsAddr string
	serveWatch       bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the document over a read-only HTTP API",
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().StringVarP(&serveFile, "file", "f", "svc.yml", "service topology document")
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":7841", "API listen address")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", ":9090", "metrics listen address, empty disables metrics")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the document when the file changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Printf("Starting topo")

	prometheus.MustRegister(
		metrics.DocumentReloads,
		metrics.Validations,
		metrics.RenderDuration,
		metrics.APIRequests,
		metrics.WatchClients,
	)

	for _, addr := range []string{serveAddr, serveMetricsAddr} {
		if addr != "" && !utils.IsAddrAvailable(addr) {
			return fmt.Errorf("listen address %s is already in use", addr)
		}
	}

	// Create context with cancellation for the entire application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []topo.Option{}
	if serveWatch {
		opts = append(opts, topo.WithWatcher())
	}

	store, err := topo.NewStore(ctx, serveFile, opts...)
	if err != nil {
		return err
	}
	defer store.Close()

	var servers []*http.Server

	log.Printf("Starting document api on %s\n", serveAddr)
	apiServer := &http.Server{
		Addr:    serveAddr,
		Handler: h2c.NewHandler(api.Handler(store), &http2.Server{}),
	}
	servers = append(servers, apiServer)
	go func() {
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("API server error: %v", err)
		}
	}()

	if serveMetricsAddr != "" {
		log.Printf("Starting metrics server on %s\n", serveMetricsAddr)
		metricsServer := &http.Server{
			Addr:    serveMetricsAddr,
			Handler: promhttp.Handler(),
		}
		servers = append(servers, metricsServer)
		go func() {
			if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Surface store errors in the serve log
	go func() {
		for storeErr := range store.ErrorChan {
			log.Printf("Store error: %v", storeErr)
		}
	}()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGABRT)

	// Wait for shutdown signal
	sig := <-sigChan
	log.Printf("Received signal '%v', initiating graceful shutdown...", sig)

	// Cancel context to notify all components
	cancel()

	if err := gracefulShutdown(servers, 30*time.Second); err != nil {
		return err
	}

	log.Println("Goodbye")
	return nil
}

func gracefulShutdown(servers []*http.Server, timeout time.Duration) error {
	// Create a channel to signal completion
	done := make(chan struct{})

	// Create timeout context
	toCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	go func() {
		var wg sync.WaitGroup
		for _, server := range servers {
			wg.Add(1)
			go func(srv *http.Server) {
				defer wg.Done()
				if err := srv.Shutdown(toCtx); err != nil {
					log.Printf("Error during server shutdown: %v", err)
				}
			}(server)
		}
		wg.Wait()
		close(done)
	}()

	// Wait for either completion or timeout
	select {
	case <-toCtx.Done():
		if toCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("shutdown timed out after %v", timeout)
		}
	case <-done:
		log.Println("Graceful shutdown completed")
	}

	return nil
}
