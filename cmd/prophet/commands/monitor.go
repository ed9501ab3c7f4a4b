package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/engine"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "연속 모니터링",
	Long: `유니버스 전체 스캔을 주기적으로 반복합니다.
시작 즉시 1회 실행하고, 이후 --interval 마다 실행합니다. Ctrl+C로 중단합니다.

Example:
  go run ./cmd/prophet monitor
  go run ./cmd/prophet monitor --interval 30m --tickers 005930,000660`,
	RunE: runMonitor,
}

var (
	monitorInterval time.Duration
	monitorTickers  string
	monitorUniverse string
)

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 0, "스캔 주기 (기본: MONITOR_INTERVAL)")
	monitorCmd.Flags().StringVar(&monitorTickers, "tickers", "", "쉼표로 구분한 종목 코드")
	monitorCmd.Flags().StringVar(&monitorUniverse, "universe", "", "종목 목록 파일")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	interval := monitorInterval
	if interval <= 0 {
		interval = a.cfg.Scan.MonitorInterval
	}

	ub, err := a.universe(ctx, monitorTickers, monitorUniverse)
	if err != nil {
		return err
	}
	scanner, err := a.scanner(ctx, 0)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	onReport := func(r *contracts.ScanReport) {
		printReport(out, r, a.cfg.Scan.TopN)
	}

	return engine.NewMonitor(scanner, ub, interval, onReport, a.log).Run(ctx)
}
