package collector

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/prophet/internal/contracts"
)

// FileSource reads snapshot fixtures from <dir>/<ticker>.yaml
type FileSource struct {
	dir string
}

// NewFileSource creates a fixture source
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Name returns the source name
func (s *FileSource) Name() string {
	return "file"
}

// Fill copies every feature of the fixture. A missing file is ErrNotFound.
func (s *FileSource) Fill(ctx context.Context, ticker contracts.Ticker, asOf time.Time, b *contracts.SnapshotBuilder) error {
	path := filepath.Join(s.dir, string(ticker)+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture %s: %w", path, err)
	}

	var doc contracts.SnapshotDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		// 손상된 fixture는 소스 장애로 분류
		return fmt.Errorf("decode fixture %s: %w", path, err)
	}
	if doc.Ticker != "" && doc.Ticker != ticker {
		return fmt.Errorf("fixture %s holds ticker %s: %w", path, doc.Ticker, contracts.ErrNotFound)
	}

	for k, v := range doc.Numbers {
		b.SetNumber(k, v)
	}
	for k, v := range doc.Labels {
		b.SetLabel(k, v)
	}
	for k, v := range doc.Series {
		b.SetSeries(k, v)
	}
	return nil
}
