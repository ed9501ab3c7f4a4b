package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	scoringFile string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prophet",
	Short: "Prophet - 포물선 신호 종합 엔진",
	Long: `Prophet Unified CLI

6개 예측기(EPS 괴리, 신용 위험, 배당 바닥, 반대매매 바닥, 고래 추적, 치킨게임 생존)의
점수를 종합해 종목별 등급(IMMINENT / LIKELY / WATCH / NONE / FORBIDDEN)을 산출합니다.

Usage:
  go run ./cmd/prophet [command]

Examples:
  go run ./cmd/prophet score 005930
  go run ./cmd/prophet scan --tickers 005930,000660 --top 10
  go run ./cmd/prophet monitor --interval 1h
  go run ./cmd/prophet api --port 8089
  go run ./cmd/prophet config check`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&scoringFile, "scoring", "", "scoring config YAML (default is SCORING_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
