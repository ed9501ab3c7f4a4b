package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/prophet/internal/scoreconfig"
	"github.com/wonny/prophet/pkg/config"
)

// configCmd groups scoring config commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "점수 설정 관리",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "점수 설정 검증",
	Long: `점수 설정 YAML을 읽어 검증하고 해시와 경고를 출력합니다.
검증 실패 시 0이 아닌 코드로 종료합니다.

Example:
  go run ./cmd/prophet config check
  go run ./cmd/prophet config check --file config/scoring.yaml`,
	RunE: runConfigCheck,
}

var configCheckFile string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)

	configCheckCmd.Flags().StringVar(&configCheckFile, "file", "", "점수 설정 YAML (기본: SCORING_CONFIG)")
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	path := configCheckFile
	if path == "" {
		path = scoringFile
	}
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path = cfg.ScoringConfigPath
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Checking %s\n", path)

	sc, _, err := scoreconfig.Load(path)
	if err != nil {
		fmt.Fprintf(out, "❌ Invalid: %v\n", err)
		return err
	}

	hash, err := scoreconfig.Hash(sc)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Valid (hash %s)\n", hash)

	for _, w := range scoreconfig.Warn(sc) {
		fmt.Fprintf(out, "⚠️  %s: %s\n", w.Code, w.Message)
	}
	return nil
}
