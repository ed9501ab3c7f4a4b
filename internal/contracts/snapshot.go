package contracts

import (
	"encoding/json"
	"sort"
	"time"
)

// FeatureSnapshot is the immutable per-ticker input to every predictor
// ⭐ SSOT: Collector → Predictor 입력 데이터 전달
//
// Values are only reachable through accessors that return copies, so a
// snapshot can be shared by concurrently running predictors.
type FeatureSnapshot struct {
	ticker  Ticker
	asOf    time.Time
	numbers map[string]float64
	labels  map[string]string
	series  map[string][]float64
}

// Ticker returns the snapshot's ticker
func (s *FeatureSnapshot) Ticker() Ticker {
	return s.ticker
}

// AsOf returns the snapshot timestamp
func (s *FeatureSnapshot) AsOf() time.Time {
	return s.asOf
}

// Number returns a numeric feature
func (s *FeatureSnapshot) Number(name string) (float64, bool) {
	v, ok := s.numbers[name]
	return v, ok
}

// Label returns a categorical feature
func (s *FeatureSnapshot) Label(name string) (string, bool) {
	v, ok := s.labels[name]
	return v, ok
}

// Series returns a copy of a numeric series (oldest first)
func (s *FeatureSnapshot) Series(name string) ([]float64, bool) {
	v, ok := s.series[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, true
}

// Has reports whether a feature of any kind is present
func (s *FeatureSnapshot) Has(name string) bool {
	if _, ok := s.numbers[name]; ok {
		return true
	}
	if _, ok := s.labels[name]; ok {
		return true
	}
	_, ok := s.series[name]
	return ok
}

// Names returns all feature names in sorted order
func (s *FeatureSnapshot) Names() []string {
	names := make([]string, 0, len(s.numbers)+len(s.labels)+len(s.series))
	for k := range s.numbers {
		names = append(names, k)
	}
	for k := range s.labels {
		names = append(names, k)
	}
	for k := range s.series {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of features
func (s *FeatureSnapshot) Len() int {
	return len(s.numbers) + len(s.labels) + len(s.series)
}

// Document returns a detached, serializable copy of the snapshot
func (s *FeatureSnapshot) Document() SnapshotDocument {
	doc := SnapshotDocument{
		Ticker:  s.ticker,
		AsOf:    s.asOf,
		Numbers: make(map[string]float64, len(s.numbers)),
		Labels:  make(map[string]string, len(s.labels)),
		Series:  make(map[string][]float64, len(s.series)),
	}
	for k, v := range s.numbers {
		doc.Numbers[k] = v
	}
	for k, v := range s.labels {
		doc.Labels[k] = v
	}
	for k, v := range s.series {
		doc.Series[k] = append([]float64(nil), v...)
	}
	return doc
}

// MarshalJSON encodes the snapshot through its document form
func (s *FeatureSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Document())
}

// UnmarshalJSON decodes a snapshot document
func (s *FeatureSnapshot) UnmarshalJSON(data []byte) error {
	var doc SnapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*s = *doc.Build()
	return nil
}

// SnapshotDocument is the wire/fixture form of a FeatureSnapshot
type SnapshotDocument struct {
	Ticker  Ticker               `json:"ticker" yaml:"ticker"`
	AsOf    time.Time            `json:"as_of" yaml:"as_of"`
	Numbers map[string]float64   `json:"numbers,omitempty" yaml:"numbers,omitempty"`
	Labels  map[string]string    `json:"labels,omitempty" yaml:"labels,omitempty"`
	Series  map[string][]float64 `json:"series,omitempty" yaml:"series,omitempty"`
}

// Build freezes the document into a snapshot
func (d SnapshotDocument) Build() *FeatureSnapshot {
	b := NewSnapshotBuilder(d.Ticker, d.AsOf)
	for k, v := range d.Numbers {
		b.SetNumber(k, v)
	}
	for k, v := range d.Labels {
		b.SetLabel(k, v)
	}
	for k, v := range d.Series {
		b.SetSeries(k, v)
	}
	return b.Build()
}

// SnapshotBuilder accumulates features before a snapshot is frozen
type SnapshotBuilder struct {
	ticker  Ticker
	asOf    time.Time
	numbers map[string]float64
	labels  map[string]string
	series  map[string][]float64
}

// NewSnapshotBuilder creates an empty builder
func NewSnapshotBuilder(ticker Ticker, asOf time.Time) *SnapshotBuilder {
	return &SnapshotBuilder{
		ticker:  ticker,
		asOf:    asOf,
		numbers: make(map[string]float64),
		labels:  make(map[string]string),
		series:  make(map[string][]float64),
	}
}

// SetNumber sets a numeric feature
func (b *SnapshotBuilder) SetNumber(name string, v float64) *SnapshotBuilder {
	b.numbers[name] = v
	return b
}

// SetLabel sets a categorical feature
func (b *SnapshotBuilder) SetLabel(name, v string) *SnapshotBuilder {
	b.labels[name] = v
	return b
}

// SetSeries sets a numeric series, copying the input
func (b *SnapshotBuilder) SetSeries(name string, v []float64) *SnapshotBuilder {
	b.series[name] = append([]float64(nil), v...)
	return b
}

// Remove deletes a feature of any kind
func (b *SnapshotBuilder) Remove(name string) *SnapshotBuilder {
	delete(b.numbers, name)
	delete(b.labels, name)
	delete(b.series, name)
	return b
}

// Build returns a frozen snapshot; the builder may be reused afterwards
func (b *SnapshotBuilder) Build() *FeatureSnapshot {
	s := &FeatureSnapshot{
		ticker:  b.ticker,
		asOf:    b.asOf,
		numbers: make(map[string]float64, len(b.numbers)),
		labels:  make(map[string]string, len(b.labels)),
		series:  make(map[string][]float64, len(b.series)),
	}
	for k, v := range b.numbers {
		s.numbers[k] = v
	}
	for k, v := range b.labels {
		s.labels[k] = v
	}
	for k, v := range b.series {
		s.series[k] = append([]float64(nil), v...)
	}
	return s
}
