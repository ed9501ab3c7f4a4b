package universe

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/prophet/internal/contracts"
)

// Static is a fixed ticker list
type Static []contracts.Ticker

// Build returns the list, deduplicated in first-seen order
func (s Static) Build(ctx context.Context, asOf time.Time) (*contracts.Universe, error) {
	tickers := dedupe(s)
	return &contracts.Universe{
		Date:       asOf,
		Tickers:    tickers,
		Excluded:   map[contracts.Ticker]string{},
		TotalCount: len(tickers),
	}, nil
}

// ParseTickers splits a comma-separated ticker list
func ParseTickers(csv string) Static {
	var out Static
	for _, part := range strings.Split(csv, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, contracts.Ticker(t))
		}
	}
	return out
}

// File reads the ticker list from a file on every Build.
// .yaml/.yml files hold a list (or {tickers: [...]}); anything else is one
// ticker per line with # comments.
type File struct {
	path string
}

// NewFile creates a file-backed universe
func NewFile(path string) *File {
	return &File{path: path}
}

// Build reads the file
func (f *File) Build(ctx context.Context, asOf time.Time) (*contracts.Universe, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	var tickers Static
	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".yaml", ".yml":
		tickers, err = parseYAML(data)
	default:
		tickers, err = parseLines(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse universe file %s: %w", f.path, err)
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("universe file %s lists no tickers", f.path)
	}

	return tickers.Build(ctx, asOf)
}

func parseYAML(data []byte) (Static, error) {
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return toStatic(list), nil
	}

	var doc struct {
		Tickers []string `yaml:"tickers"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return toStatic(doc.Tickers), nil
}

func parseLines(data []byte) (Static, error) {
	var out Static
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		out = append(out, ParseTickers(line)...)
	}
	return out, sc.Err()
}

func toStatic(list []string) Static {
	var out Static
	for _, s := range list {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, contracts.Ticker(t))
		}
	}
	return out
}

func dedupe(in []contracts.Ticker) []contracts.Ticker {
	seen := make(map[contracts.Ticker]bool, len(in))
	out := make([]contracts.Ticker, 0, len(in))
	for _, t := range in {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
