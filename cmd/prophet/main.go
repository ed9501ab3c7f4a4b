package main

import (
	"os"

	"github.com/wonny/prophet/cmd/prophet/commands"
)

// main is the entry point for the Prophet CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/prophet [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
