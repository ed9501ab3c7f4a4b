package engine

import (
	"fmt"
	"sync"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/predictors"
	"github.com/wonny/prophet/internal/scoreconfig"
	"github.com/wonny/prophet/internal/synthesizer"
)

// Engine evaluates one snapshot into a Verdict
// ⭐ SSOT: Snapshot → 6 Predictors → Synthesizer → Classifier (I/O 없음)
type Engine struct {
	predictors []predictors.Predictor
	synth      *synthesizer.Synthesizer
	classifier *synthesizer.Classifier
	configHash string
}

// New validates the scoring config and builds the engine
func New(cfg *scoreconfig.Config) (*Engine, error) {
	if err := scoreconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}

	hash, err := scoreconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash scoring config: %w", err)
	}

	return &Engine{
		predictors: predictors.New(cfg),
		synth:      synthesizer.New(cfg.Synthesis),
		classifier: synthesizer.NewClassifier(cfg.Classification),
		configHash: hash,
	}, nil
}

// ConfigHash identifies the thresholds every verdict was produced with
func (e *Engine) ConfigHash() string {
	return e.configHash
}

// Evaluate runs the six predictors concurrently and classifies the result.
// Results land in fixed slots, so the output does not depend on scheduling.
func (e *Engine) Evaluate(snap *contracts.FeatureSnapshot) contracts.Verdict {
	results := make([]contracts.PredictorResult, len(e.predictors))

	var wg sync.WaitGroup
	for i, p := range e.predictors {
		wg.Add(1)
		go func(i int, p predictors.Predictor) {
			defer wg.Done()
			results[i] = predictors.Guard(p, snap)
		}(i, p)
	}
	wg.Wait()

	score := e.synth.Synthesize(snap.Ticker(), snap.AsOf(), results)
	return e.classifier.Classify(score)
}
