package classifier

import (
	"context"
	"fmt"

	"github.com/jordanlanch/leadtriage/pkg/logger"
	"github.com/jordanlanch/leadtriage/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is how many leads are evaluated concurrently
const DefaultBatchSize = 50

// Decision is the outcome for one lead
type Decision struct {
	Remove bool   `json:"remove"`
	Reason Reason `json:"reason,omitempty"`
}

// Result of a classification run. Decisions is parallel to the input leads and
// Flagged keeps input order.
type Result struct {
	Flagged   []Lead     `json:"-"`
	Decisions []Decision `json:"decisions"`
	Batches   int        `json:"batches"`
}

// Progress is reported before and after each batch
type Progress struct {
	Batch        int  `json:"batch"`
	TotalBatches int  `json:"total_batches"`
	BatchSize    int  `json:"batch_size"`
	Flagged      int  `json:"flagged"` // flagged in this batch, set once Done
	Done         bool `json:"done"`
}

// ProgressFunc receives batch progress. It is called from the classifying goroutine.
type ProgressFunc func(Progress)

// Service classifies uploaded leads with a language model
type Service struct {
	answerer  Answerer
	logger    logger.Logger
	metrics   *metrics.Metrics
	batchSize int
}

// NewService creates a new classifier service
func NewService(answerer Answerer, log logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Default()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Service{
		answerer:  answerer,
		logger:    log.With("component", "classifier"),
		metrics:   m,
		batchSize: DefaultBatchSize,
	}
}

// Decide runs the predicates in order for one lead and stops at the first that
// flags it
func (s *Service) Decide(ctx context.Context, lead Lead, c Criteria) (Decision, error) {
	for _, p := range predicates {
		flagged, err := s.evaluate(ctx, p, lead, c)
		if err != nil {
			return Decision{}, err
		}
		if flagged {
			return Decision{Remove: true, Reason: p.reason}, nil
		}
	}
	return Decision{}, nil
}

// Classify evaluates leads in batches. Batches run one after another and the
// leads of a batch run concurrently. Any model failure cancels the batch and
// fails the whole run. progress may be nil.
func (s *Service) Classify(ctx context.Context, leads []Lead, c Criteria, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(Progress) {}
	}

	result := &Result{
		Flagged:   []Lead{},
		Decisions: make([]Decision, len(leads)),
	}
	total := (len(leads) + s.batchSize - 1) / s.batchSize
	result.Batches = total

	for b := 0; b < total; b++ {
		start := b * s.batchSize
		end := min(start+s.batchSize, len(leads))
		batch := leads[start:end]

		progress(Progress{Batch: b + 1, TotalBatches: total, BatchSize: len(batch)})

		g, gctx := errgroup.WithContext(ctx)
		for i := range batch {
			idx := start + i
			g.Go(func() error {
				d, err := s.Decide(gctx, leads[idx], c)
				if err != nil {
					return fmt.Errorf("lead %d: %w", idx+1, err)
				}
				result.Decisions[idx] = d
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			s.logger.Error("classification batch failed", "batch", b+1, "total_batches", total, "error", err)
			return nil, fmt.Errorf("batch %d/%d: %w", b+1, total, err)
		}

		flagged := 0
		for idx := start; idx < end; idx++ {
			if result.Decisions[idx].Remove {
				result.Flagged = append(result.Flagged, leads[idx])
				flagged++
			}
		}
		progress(Progress{Batch: b + 1, TotalBatches: total, BatchSize: len(batch), Flagged: flagged, Done: true})
		s.logger.Debug("classification batch complete", "batch", b+1, "total_batches", total, "flagged", flagged)
	}

	s.metrics.RecordClassification(len(leads), len(result.Flagged))
	s.logger.Info("classification complete", "leads", len(leads), "flagged", len(result.Flagged))
	return result, nil
}
