package scheduler

import (
	"math"
	"strings"
	"time"
)

type Stage string

const (
	StageUnseen     Stage = "unseen"
	StageInProgress Stage = "in_progress"
	StageMastered   Stage = "mastered"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps free-form difficulty labels onto the known set, defaulting to medium.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Stage thresholds. A rating at or below UnseenCeiling has not moved past the starting
// region; a rating at the top of the scale is mastered.
const (
	UnseenCeiling     = 0.20
	MasteredThreshold = 1.0

	ratingEpsilon = 1e-9
)

// Mastery is the per-user, per-topic mastery state.
type Mastery struct {
	Rating          float64
	LastSeenAt      *time.Time
	LastPractisedAt *time.Time
}

// NewMastery returns the state of a topic with no attempts.
func (c Config) NewMastery() Mastery {
	return Mastery{Rating: clamp01(c.DefaultRating)}
}

// NextRating moves rating toward 1 on a correct answer and toward 0 on an incorrect one.
// Harder questions earn a larger gain and cost a smaller penalty; slow correct answers are
// damped. The result is always in [0, 1].
func (c Config) NextRating(rating float64, correct bool, difficulty Difficulty, secondsTaken int) float64 {
	w := c.difficultyWeight(difficulty)
	if correct {
		return clamp01(rating + c.CorrectGain*w*c.speedFactor(secondsTaken))
	}
	return clamp01(rating - c.IncorrectPenalty/w)
}

// ApplyMastery folds one attempt into m and stamps both timestamps with now.
func (c Config) ApplyMastery(m Mastery, correct bool, difficulty Difficulty, secondsTaken int, now time.Time) Mastery {
	at := now
	m.Rating = c.NextRating(m.Rating, correct, difficulty, secondsTaken)
	m.LastSeenAt = &at
	m.LastPractisedAt = &at
	return m
}

func (c Config) difficultyWeight(d Difficulty) float64 {
	if w, ok := c.DifficultyWeights[d]; ok && w > 0 {
		return w
	}
	return 1
}

// speedFactor is 1 up to FastAnswer, SlowAnswerDamping from SlowAnswer on, linear between.
// Unknown durations (<= 0) are not damped.
func (c Config) speedFactor(secondsTaken int) float64 {
	if secondsTaken <= 0 {
		return 1
	}
	d := time.Duration(secondsTaken) * time.Second
	switch {
	case d <= c.FastAnswer:
		return 1
	case d >= c.SlowAnswer || c.SlowAnswer == c.FastAnswer:
		return c.SlowAnswerDamping
	}
	frac := float64(d-c.FastAnswer) / float64(c.SlowAnswer-c.FastAnswer)
	return 1 - frac*(1-c.SlowAnswerDamping)
}

// StageFromRating derives the coarse stage from a rating.
func StageFromRating(rating float64) Stage {
	switch {
	case rating >= MasteredThreshold-ratingEpsilon:
		return StageMastered
	case rating <= UnseenCeiling+ratingEpsilon:
		return StageUnseen
	default:
		return StageInProgress
	}
}

// PercentFromRating projects a rating onto the 0..100 percent scale.
func PercentFromRating(rating float64) int {
	return int(math.Round(clamp01(rating) * 100))
}

// StageFromPercent uses the same thresholds as StageFromRating.
func StageFromPercent(percent int) Stage {
	return StageFromRating(float64(percent) / 100)
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
