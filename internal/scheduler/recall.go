package scheduler

import (
	"sort"
	"time"
)

// Recall is the per-user, per-question spaced-repetition state.
type Recall struct {
	RollingAccuracy float64
	Attempts        int
	LastSeenAt      *time.Time
	NextDueAt       *time.Time
}

// Review is one graded answer, as read back from the attempt log.
type Review struct {
	Correct    bool
	AnsweredAt time.Time
}

// NewRecall returns the state of a question that was never answered.
func (c Config) NewRecall() Recall {
	return Recall{RollingAccuracy: clamp01(c.InitialAccuracy)}
}

// PreviousInterval is the interval chosen by the last update, or DefaultInterval when unknown.
func (c Config) PreviousInterval(r Recall) time.Duration {
	if r.LastSeenAt == nil || r.NextDueAt == nil {
		return c.DefaultInterval
	}
	iv := r.NextDueAt.Sub(*r.LastSeenAt)
	if iv < time.Second {
		iv = time.Second
	}
	return iv
}

// NextInterval doubles on success (floored at MinCorrectInterval) and halves on
// failure (floored at MinIncorrectInterval). There is no upper cap.
func (c Config) NextInterval(prev time.Duration, correct bool) time.Duration {
	if correct {
		return maxDuration(c.MinCorrectInterval, scale(prev, c.CorrectMultiplier))
	}
	return maxDuration(c.MinIncorrectInterval, scale(prev, c.IncorrectMultiplier))
}

// FirstInterval schedules a question that has no previous review. A correct first answer
// is due again after DefaultInterval; an incorrect one decays from it.
func (c Config) FirstInterval(correct bool) time.Duration {
	if correct {
		return maxDuration(c.MinCorrectInterval, c.DefaultInterval)
	}
	return c.NextInterval(c.DefaultInterval, false)
}

// ApplyRecall folds one answer given at now into r.
func (c Config) ApplyRecall(r Recall, correct bool, now time.Time) Recall {
	target := 0.0
	if correct {
		target = 1.0
	}
	var next time.Duration
	if r.LastSeenAt == nil || r.NextDueAt == nil {
		next = c.FirstInterval(correct)
	} else {
		next = c.NextInterval(c.PreviousInterval(r), correct)
	}

	seen := now
	due := now.Add(next)
	return Recall{
		RollingAccuracy: clamp01(c.EMAAlpha*target + (1-c.EMAAlpha)*r.RollingAccuracy),
		Attempts:        max(0, r.Attempts) + 1,
		LastSeenAt:      &seen,
		NextDueAt:       &due,
	}
}

// ReplayRecall rebuilds the state from raw history using the same arithmetic as
// ApplyRecall. Reviews are folded in answer order; the input slice is not modified.
func (c Config) ReplayRecall(reviews []Review) Recall {
	ordered := make([]Review, len(reviews))
	copy(ordered, reviews)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].AnsweredAt.Before(ordered[j].AnsweredAt)
	})

	r := c.NewRecall()
	for _, rv := range ordered {
		r = c.ApplyRecall(r, rv.Correct, rv.AnsweredAt)
	}
	return r
}

// Due reports whether the question should be reviewed at now. Never-seen questions are due.
func (r Recall) Due(now time.Time) bool {
	return r.NextDueAt == nil || !now.Before(*r.NextDueAt)
}

func scale(d time.Duration, f float64) time.Duration {
	return time.Duration(float64(d) * f)
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
