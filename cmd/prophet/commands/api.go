package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/prophet/internal/alert"
	"github.com/wonny/prophet/internal/api"
	"github.com/wonny/prophet/internal/api/handlers"
	"github.com/wonny/prophet/pkg/metrics"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API + WebSocket 서버를 시작합니다.

Endpoints:
  GET  /health                           - Health check
  GET  /api/score/{ticker}?as_of=DATE    - 수집 후 평가
  POST /api/evaluate                     - 스냅샷 JSON 평가 (수집 없음)
  GET  /ws/verdicts                      - 판정 스트림 (WebSocket)
  GET  /metrics                          - Prometheus 메트릭

Example:
  go run ./cmd/prophet api
  go run ./cmd/prophet api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Prophet API Server ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	hub := alert.NewHub(a.log)
	defer hub.Close()

	scanner, err := a.scanner(cmd.Context(), 1, hub)
	if err != nil {
		return err
	}

	routes := api.Routes{
		Score:  handlers.NewScoreHandler(scanner, a.log),
		Stream: hub,
	}
	if a.cfg.MetricsEnabled {
		routes.Metrics = metrics.Handler()
	}

	server := api.New(a.cfg, a.log, api.NewRouter(routes, a.log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Close()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
