package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/prophet/internal/collector"
	"github.com/wonny/prophet/internal/contracts"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <ticker>",
	Short: "단일 종목 예언 점수",
	Long: `한 종목의 스냅샷을 수집(또는 파일에서 읽어)하고 6개 예측기로 평가합니다.

Example:
  go run ./cmd/prophet score 005930
  go run ./cmd/prophet score 005930 --as-of 2024-06-03 --json
  go run ./cmd/prophet score 005930 --snapshot fixtures/005930.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

var (
	scoreAsOf     string
	scoreSnapshot string
	scoreJSON     bool
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreAsOf, "as-of", "", "평가 기준일 (YYYY-MM-DD, 기본: 오늘)")
	scoreCmd.Flags().StringVar(&scoreSnapshot, "snapshot", "", "수집 대신 사용할 스냅샷 YAML")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "JSON 출력")
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ticker := contracts.Ticker(strings.TrimSpace(args[0]))

	asOf, err := parseAsOf(scoreAsOf)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var v contracts.Verdict
	if scoreSnapshot != "" {
		snap, err := readSnapshot(scoreSnapshot, ticker, asOf)
		if err != nil {
			return err
		}
		v = a.engine.Evaluate(snap)
		a.emitter().Emit(ctx, v)
	} else {
		v, err = scoreLive(ctx, a, ticker, asOf)
		if err != nil {
			return err
		}
	}

	if scoreJSON {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	printVerdict(cmd.OutOrStdout(), v)
	return nil
}

func scoreLive(ctx context.Context, a *app, ticker contracts.Ticker, asOf time.Time) (contracts.Verdict, error) {
	scanner, err := a.scanner(ctx, 1)
	if err != nil {
		return contracts.Verdict{}, err
	}
	v, err := scanner.ScoreOne(ctx, ticker, asOf)
	if err != nil {
		return contracts.Verdict{}, fmt.Errorf("score %s (%s): %w", ticker, contracts.SkipReason(err), err)
	}
	return v, nil
}

// readSnapshot loads a snapshot document, sanitized like collected ones.
// Ticker and as-of default to the command's.
func readSnapshot(path string, ticker contracts.Ticker, asOf time.Time) (*contracts.FeatureSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var doc contracts.SnapshotDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	if doc.Ticker == "" {
		doc.Ticker = ticker
	}
	if doc.Ticker != ticker {
		return nil, fmt.Errorf("snapshot %s holds ticker %s, not %s", path, doc.Ticker, ticker)
	}
	if doc.AsOf.IsZero() {
		doc.AsOf = asOf
	}

	collector.Sanitize(&doc)
	return doc.Build(), nil
}
