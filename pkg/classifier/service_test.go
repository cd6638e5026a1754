package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/logger"
	"github.com/jordanlanch/leadtriage/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type question struct {
	System      string
	User        string
	Temperature float32
}

// stubAnswerer answers from a function and records every question
type stubAnswerer struct {
	mu        sync.Mutex
	questions []question
	answer    func(q question) (string, error)
}

func (s *stubAnswerer) Ask(ctx context.Context, system, user string, temperature float32) (string, error) {
	q := question{System: system, User: user, Temperature: temperature}
	s.mu.Lock()
	s.questions = append(s.questions, q)
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.answer(q)
}

func (s *stubAnswerer) asked() []question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]question(nil), s.questions...)
}

func lead(location, industry, email string) Lead {
	return NewLead(
		[]string{"Email", "Location", "informalIndustry"},
		[]string{email, location, industry},
	)
}

func newTestService(a Answerer) *Service {
	return NewService(a, logger.Nop(), metrics.NewNop())
}

var allCriteria = Criteria{
	BlocklistedIndustries: "Tobacco;Gambling",
	WhitelistedIndustries: "Dentistry;Orthodontics",
	WhitelistedAreas:      "Texas;Oklahoma",
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		lead       Lead
		criteria   Criteria
		answers    map[string]string // keyed by a phrase unique to one system prompt
		want       Decision
		wantAsked  int
		wantLastAt float32
	}{
		{
			name:      "outside area short-circuits",
			lead:      lead("Paris, France", "Dentistry", "a@example.com"),
			criteria:  allCriteria,
			answers:   map[string]string{"areas": "no"},
			want:      Decision{Remove: true, Reason: ReasonOutsideArea},
			wantAsked: 1,
		},
		{
			name:      "blocklisted industry",
			lead:      lead("Austin, TX", "Tobacco retail", "b@example.com"),
			criteria:  allCriteria,
			answers:   map[string]string{"areas": "yes", "blocklisted": "yes"},
			want:      Decision{Remove: true, Reason: ReasonBlocklistedIndustry},
			wantAsked: 2,
		},
		{
			name:       "outside whitelisted industry",
			lead:       lead("Austin, TX", "Plumbing", "c@example.com"),
			criteria:   allCriteria,
			answers:    map[string]string{"areas": "yes", "blocklisted": "no", "whitelisted industries": "no"},
			want:       Decision{Remove: true, Reason: ReasonOutsideIndustry},
			wantAsked:  3,
			wantLastAt: 0.2,
		},
		{
			name:       "kept",
			lead:       lead("Austin, TX", "Dentistry", "d@example.com"),
			criteria:   allCriteria,
			answers:    map[string]string{"areas": "yes", "blocklisted": "no", "whitelisted industries": "yes"},
			want:       Decision{},
			wantAsked:  3,
			wantLastAt: 0.2,
		},
		{
			name:      "answers are trimmed and lower-cased",
			lead:      lead("Paris, France", "Dentistry", "e@example.com"),
			criteria:  allCriteria,
			answers:   map[string]string{"areas": "  NO\n"},
			want:      Decision{Remove: true, Reason: ReasonOutsideArea},
			wantAsked: 1,
		},
		{
			name:       "no fuzzy matching",
			lead:       lead("Paris, France", "Dentistry", "f@example.com"),
			criteria:   allCriteria,
			answers:    map[string]string{"areas": "No.", "blocklisted": "no", "whitelisted industries": "Yes, it does"},
			want:       Decision{},
			wantAsked:  3,
			wantLastAt: 0.2,
		},
		{
			name:     "empty criteria never asks",
			lead:     lead("Paris, France", "Tobacco", "g@example.com"),
			criteria: Criteria{},
			want:     Decision{},
		},
		{
			name:      "empty location skips the area check",
			lead:      lead("", "Tobacco", "h@example.com"),
			criteria:  allCriteria,
			answers:   map[string]string{"blocklisted": "yes"},
			want:      Decision{Remove: true, Reason: ReasonBlocklistedIndustry},
			wantAsked: 1,
		},
		{
			name:      "empty industry skips both industry checks",
			lead:      lead("Austin, TX", "", "i@example.com"),
			criteria:  allCriteria,
			answers:   map[string]string{"areas": "yes"},
			want:      Decision{},
			wantAsked: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAnswerer{answer: func(q question) (string, error) {
				for key, ans := range tt.answers {
					if strings.Contains(q.System, key) {
						return ans, nil
					}
				}
				return "", fmt.Errorf("unexpected question: %s", q.System)
			}}

			got, err := newTestService(stub).Decide(context.Background(), tt.lead, tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			asked := stub.asked()
			assert.Len(t, asked, tt.wantAsked)
			if tt.wantLastAt != 0 {
				assert.Equal(t, tt.wantLastAt, asked[len(asked)-1].Temperature)
			}
		})
	}
}

func TestPrompts(t *testing.T) {
	stub := &stubAnswerer{answer: func(q question) (string, error) { return "yes", nil }}
	_, err := newTestService(stub).Decide(context.Background(), lead("Austin, TX", "Dentistry", "x@example.com"), Criteria{
		WhitelistedAreas:      "Texas;Oklahoma",
		BlocklistedIndustries: "Tobacco",
	})
	require.NoError(t, err)

	asked := stub.asked()
	require.Len(t, asked, 2)
	assert.Equal(t,
		"You are a helpful assistant that filters addresses based on whitelisted areas. The whitelisted areas are:\nTexas\nOklahoma",
		asked[0].System)
	assert.Equal(t,
		"Is the address Austin, TX located within any of the whitelisted areas? You answer should strictly be 'yes' or 'no'",
		asked[0].User)
	assert.Equal(t, float32(0.7), asked[0].Temperature)
	assert.Equal(t,
		"Does the industry Dentistry match any of the blocklisted industries? Answer strictly 'yes' or 'no'",
		asked[1].User)
}

func TestClassify_BatchesAndOrder(t *testing.T) {
	leads := make([]Lead, 120)
	for i := range leads {
		loc := "Austin, TX"
		if i%10 == 0 {
			loc = "Paris, France"
		}
		leads[i] = lead(loc, "", fmt.Sprintf("lead%03d@example.com", i))
	}

	stub := &stubAnswerer{answer: func(q question) (string, error) {
		if strings.Contains(q.User, "Paris") {
			return "no", nil
		}
		return "yes", nil
	}}

	var events []Progress
	result, err := newTestService(stub).Classify(context.Background(), leads, Criteria{WhitelistedAreas: "Texas"}, func(p Progress) {
		events = append(events, p)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Batches)
	require.Len(t, result.Flagged, 12)
	for i, l := range result.Flagged {
		assert.Equal(t, fmt.Sprintf("lead%03d@example.com", i*10), l.Email())
	}
	assert.Len(t, result.Decisions, 120)
	assert.True(t, result.Decisions[0].Remove)
	assert.False(t, result.Decisions[1].Remove)

	require.Len(t, events, 6)
	assert.Equal(t, Progress{Batch: 1, TotalBatches: 3, BatchSize: 50}, events[0])
	assert.Equal(t, Progress{Batch: 1, TotalBatches: 3, BatchSize: 50, Flagged: 5, Done: true}, events[1])
	assert.Equal(t, Progress{Batch: 3, TotalBatches: 3, BatchSize: 20, Flagged: 2, Done: true}, events[5])
}

func TestClassify_BatchRunsConcurrently(t *testing.T) {
	leads := make([]Lead, DefaultBatchSize)
	for i := range leads {
		leads[i] = lead("Austin, TX", "", fmt.Sprintf("%d@example.com", i))
	}

	// every call waits until the whole batch is in flight
	var arrived sync.WaitGroup
	arrived.Add(DefaultBatchSize)
	all := make(chan struct{})
	go func() {
		arrived.Wait()
		close(all)
	}()

	stub := &stubAnswerer{answer: func(q question) (string, error) {
		arrived.Done()
		select {
		case <-all:
			return "yes", nil
		case <-time.After(5 * time.Second):
			return "", errors.New("batch was not evaluated concurrently")
		}
	}}

	result, err := newTestService(stub).Classify(context.Background(), leads, Criteria{WhitelistedAreas: "Texas"}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Flagged)
}

func TestClassify_FailureFailsRun(t *testing.T) {
	leads := make([]Lead, 75)
	for i := range leads {
		leads[i] = lead("Austin, TX", "", fmt.Sprintf("%d@example.com", i))
	}

	var calls atomic.Int32
	stub := &stubAnswerer{answer: func(q question) (string, error) {
		calls.Add(1)
		if strings.Contains(q.User, "Austin") && calls.Load() == 3 {
			return "", errors.New("model unavailable")
		}
		return "yes", nil
	}}

	var done int
	result, err := newTestService(stub).Classify(context.Background(), leads, Criteria{WhitelistedAreas: "Texas"}, func(p Progress) {
		if p.Done {
			done++
		}
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "batch 1/2")
	assert.Contains(t, err.Error(), "model unavailable")
	assert.Zero(t, done)
	assert.LessOrEqual(t, calls.Load(), int32(DefaultBatchSize))
}

func TestClassify_NoLeads(t *testing.T) {
	stub := &stubAnswerer{answer: func(q question) (string, error) { return "no", nil }}
	result, err := newTestService(stub).Classify(context.Background(), nil, allCriteria, nil)
	require.NoError(t, err)
	assert.Zero(t, result.Batches)
	assert.Empty(t, result.Flagged)
	assert.Empty(t, stub.asked())
}

func TestNewLead_ShortRow(t *testing.T) {
	l := NewLead([]string{"Email", "Location", "informalIndustry"}, []string{"a@example.com"})
	assert.Equal(t, "a@example.com", l.Email())
	assert.Equal(t, "", l.Location())
	assert.Equal(t, []string{"Email", "Location", "informalIndustry"}, l.Fields())
}
