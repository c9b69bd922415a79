package engine

import (
	"context"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/sourcegraph/conc/pool"

	"github.com/RyanBlaney/voice-match/pkg/audio/features"
)

// CompareMany scores query against every reference. The query is fingerprinted
// once and references are processed in parallel; results keep reference order.
func (e *Engine) CompareMany(ctx context.Context, query []byte, references [][]byte) ([]*Comparison, error) {
	start := time.Now()

	queryFeatures, err := e.extract(ctx, 0, query)
	if err != nil {
		return nil, err
	}

	refs := make([]features.AudioFeatures, len(references))
	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(e.maxConcurrency)

	for i, ref := range references {
		p.Go(func(ctx context.Context) error {
			f, err := e.extract(ctx, i+1, ref)
			if err != nil {
				return err
			}
			refs[i] = f
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	results := make([]*Comparison, len(references))
	for i, ref := range refs {
		results[i] = e.CompareFeatures(queryFeatures, ref)
	}

	e.logger.Debug("Batch comparison completed", logging.Fields{
		"references":    len(references),
		"concurrency":   e.maxConcurrency,
		"processing_ms": time.Since(start).Milliseconds(),
	})

	return results, nil
}
