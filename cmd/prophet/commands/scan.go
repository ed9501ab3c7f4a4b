package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/prophet/internal/contracts"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "전체 종목 스캔",
	Long: `유니버스 전체를 병렬로 평가하고 순위를 출력합니다.

유니버스 우선순위: --tickers > --universe > UNIVERSE_FILE > DB(data.stocks)
Ctrl+C 시 새 종목은 시작하지 않고, 진행 중인 종목만 마친 뒤 부분 결과를 출력합니다.

Example:
  go run ./cmd/prophet scan --tickers 005930,000660
  go run ./cmd/prophet scan --universe universe.txt --top 30 --csv scan.csv`,
	RunE: runScan,
}

var (
	scanTickers     string
	scanUniverse    string
	scanAsOf        string
	scanTop         int
	scanConcurrency int
	scanCSV         string
	scanJSON        bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanTickers, "tickers", "", "쉼표로 구분한 종목 코드")
	scanCmd.Flags().StringVar(&scanUniverse, "universe", "", "종목 목록 파일 (.txt 또는 .yaml)")
	scanCmd.Flags().StringVar(&scanAsOf, "as-of", "", "평가 기준일 (YYYY-MM-DD, 기본: 오늘)")
	scanCmd.Flags().IntVar(&scanTop, "top", 0, "상위 출력 개수 (기본: SCAN_TOP_N)")
	scanCmd.Flags().IntVar(&scanConcurrency, "concurrency", 0, "동시 처리 종목 수 (기본: SCAN_CONCURRENCY)")
	scanCmd.Flags().StringVar(&scanCSV, "csv", "", "CSV 결과 파일")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "전체 리포트 JSON 출력")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	asOf, err := parseAsOf(scanAsOf)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ub, err := a.universe(ctx, scanTickers, scanUniverse)
	if err != nil {
		return err
	}
	u, err := ub.Build(ctx, asOf)
	if err != nil {
		return fmt.Errorf("build universe: %w", err)
	}

	scanner, err := a.scanner(ctx, scanConcurrency)
	if err != nil {
		return err
	}

	report, scanErr := scanner.Scan(ctx, u.Tickers, asOf)
	if report == nil {
		return scanErr
	}

	if scanCSV != "" {
		if err := exportCSV(scanCSV, report.Verdicts); err != nil {
			return err
		}
		a.log.WithField("path", scanCSV).Info("Scan result exported")
	}

	top := scanTop
	if top <= 0 {
		top = a.cfg.Scan.TopN
	}
	if scanJSON {
		if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		printReport(cmd.OutOrStdout(), report, top)
	}

	if errors.Is(scanErr, context.Canceled) {
		fmt.Fprintln(cmd.ErrOrStderr(), "⚠️  scan interrupted, partial result")
		return nil
	}
	return scanErr
}

func exportCSV(path string, verdicts []contracts.Verdict) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := writeCSV(f, verdicts); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}
