package scheduler

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// TopicCandidate is one topic the gate may draw from, with the user's mastery signal.
// A topic without a mastery row carries the default rating and a nil LastSeenAt.
type TopicCandidate struct {
	TopicID    string
	Rating     float64
	LastSeenAt *time.Time
}

// QuestionSource lists the questions of a topic that are eligible for the user, i.e.
// not answered since the recency cutoff.
type QuestionSource interface {
	EligibleQuestions(ctx context.Context, topicID string, answeredSince time.Time) ([]string, error)
}

// Selection is the outcome of a successful pick.
type Selection struct {
	TopicID    string
	QuestionID string
	Rank       int // position of the topic in the ranked candidate list
}

// RankTopics orders candidates weakest first. Ties on rating go to the topic seen least
// recently, never-seen topics first; remaining ties fall back to topic ID so the order is
// deterministic. The result is truncated to CandidateWindow.
func (c Config) RankTopics(candidates []TopicCandidate) []TopicCandidate {
	ranked := make([]TopicCandidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Rating != b.Rating {
			return a.Rating < b.Rating
		}
		switch {
		case a.LastSeenAt == nil && b.LastSeenAt != nil:
			return true
		case a.LastSeenAt != nil && b.LastSeenAt == nil:
			return false
		case a.LastSeenAt != nil && b.LastSeenAt != nil && !a.LastSeenAt.Equal(*b.LastSeenAt):
			return a.LastSeenAt.Before(*b.LastSeenAt)
		}
		return a.TopicID < b.TopicID
	})
	if c.CandidateWindow > 0 && len(ranked) > c.CandidateWindow {
		ranked = ranked[:c.CandidateWindow]
	}
	return ranked
}

// Selector implements the greedy weakest-first gate policy with a recency guard.
// It is safe for concurrent use; the random source is guarded by a mutex.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector returns a Selector drawing from rng. A nil rng is seeded from the clock.
func NewSelector(rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{rng: rng}
}

// NewSeededSelector returns a Selector with a reproducible random sequence.
func NewSeededSelector(seed int64) *Selector {
	return NewSelector(rand.New(rand.NewSource(seed)))
}

// Select walks the ranked candidates and returns a uniformly random eligible question
// from the first topic that has one. ErrNoEligibleQuestion is returned when none does.
func (s *Selector) Select(ctx context.Context, cfg Config, candidates []TopicCandidate, src QuestionSource, now time.Time) (Selection, error) {
	cutoff := now.Add(-cfg.RecencyWindow)
	for i, cand := range cfg.RankTopics(candidates) {
		if err := ctx.Err(); err != nil {
			return Selection{}, err
		}
		ids, err := src.EligibleQuestions(ctx, cand.TopicID, cutoff)
		if err != nil {
			return Selection{}, err
		}
		if len(ids) == 0 {
			continue
		}
		return Selection{TopicID: cand.TopicID, QuestionID: ids[s.intn(len(ids))], Rank: i}, nil
	}
	return Selection{}, ErrNoEligibleQuestion
}

func (s *Selector) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
