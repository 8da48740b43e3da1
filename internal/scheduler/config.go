// Package scheduler holds the adaptive mastery and gating logic: per-topic mastery
// ratings, per-question spaced repetition, daily streaks and the weakest-first gate
// question pick. Everything here is pure; persistence lives in the repository layer.
package scheduler

import (
	"fmt"
	"time"
)

// Config carries every tunable of the scheduler. Start from DefaultConfig and override;
// Normalize only repairs fields that have no usable zero value.
type Config struct {
	// Mastery Tracker
	DefaultRating     float64                // rating of a topic with no attempts
	CorrectGain       float64                // base increment for a correct answer
	IncorrectPenalty  float64                // base decrement for an incorrect answer
	DifficultyWeights map[Difficulty]float64 // scales gain up and penalty down for harder questions
	FastAnswer        time.Duration          // correct answers at or under this get the full gain
	SlowAnswer        time.Duration          // correct answers at or over this get SlowAnswerDamping
	SlowAnswerDamping float64                // multiplier applied to the gain of slow answers

	// Recall Scheduler
	EMAAlpha             float64
	InitialAccuracy      float64
	DefaultInterval      time.Duration
	CorrectMultiplier    float64
	MinCorrectInterval   time.Duration
	IncorrectMultiplier  float64
	MinIncorrectInterval time.Duration

	// Gate Selector
	RecencyWindow   time.Duration
	CandidateWindow int

	// Streak Tracker. Calendar days are always computed in this location.
	Location *time.Location
}

// DefaultConfig returns the production tunables.
func DefaultConfig() Config {
	return Config{
		DefaultRating:    0.20,
		CorrectGain:      0.20,
		IncorrectPenalty: 0.10,
		DifficultyWeights: map[Difficulty]float64{
			DifficultyEasy:   0.75,
			DifficultyMedium: 1.0,
			DifficultyHard:   1.5,
		},
		FastAnswer:        10 * time.Second,
		SlowAnswer:        60 * time.Second,
		SlowAnswerDamping: 0.5,

		EMAAlpha:             0.2,
		InitialAccuracy:      0.5,
		DefaultInterval:      24 * time.Hour,
		CorrectMultiplier:    2.0,
		MinCorrectInterval:   24 * time.Hour,
		IncorrectMultiplier:  0.5,
		MinIncorrectInterval: 6 * time.Hour,

		RecencyWindow:   10 * time.Minute,
		CandidateWindow: 20,

		Location: time.UTC,
	}
}

// Normalize fills the fields whose zero value Validate would reject and adds any
// difficulty missing from DifficultyWeights. Fields where zero is meaningful (gain,
// penalty, damping, recency window, answer thresholds, starting values) are kept as given;
// callers that want defaults for those start from DefaultConfig.
func (c Config) Normalize() Config {
	d := DefaultConfig()
	weights := make(map[Difficulty]float64, len(d.DifficultyWeights))
	for k, w := range d.DifficultyWeights {
		weights[k] = w
	}
	for k, w := range c.DifficultyWeights {
		weights[k] = w
	}
	c.DifficultyWeights = weights

	if c.EMAAlpha == 0 {
		c.EMAAlpha = d.EMAAlpha
	}
	if c.DefaultInterval == 0 {
		c.DefaultInterval = d.DefaultInterval
	}
	if c.CorrectMultiplier == 0 {
		c.CorrectMultiplier = d.CorrectMultiplier
	}
	if c.MinCorrectInterval == 0 {
		c.MinCorrectInterval = d.MinCorrectInterval
	}
	if c.IncorrectMultiplier == 0 {
		c.IncorrectMultiplier = d.IncorrectMultiplier
	}
	if c.MinIncorrectInterval == 0 {
		c.MinIncorrectInterval = d.MinIncorrectInterval
	}
	if c.CandidateWindow == 0 {
		c.CandidateWindow = d.CandidateWindow
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	return c
}

// Validate rejects tunables that would break the tracker invariants.
func (c Config) Validate() error {
	if c.DefaultRating < 0 || c.DefaultRating > 1 {
		return fmt.Errorf("%w: default rating %f out of [0, 1]", ErrInvalidConfig, c.DefaultRating)
	}
	if c.CorrectGain < 0 || c.IncorrectPenalty < 0 {
		return fmt.Errorf("%w: gain and penalty must be non-negative", ErrInvalidConfig)
	}
	for d, w := range c.DifficultyWeights {
		if w <= 0 {
			return fmt.Errorf("%w: weight for %q must be positive", ErrInvalidConfig, d)
		}
	}
	if c.SlowAnswer < c.FastAnswer {
		return fmt.Errorf("%w: slow answer %s below fast answer %s", ErrInvalidConfig, c.SlowAnswer, c.FastAnswer)
	}
	if c.SlowAnswerDamping < 0 || c.SlowAnswerDamping > 1 {
		return fmt.Errorf("%w: slow answer damping %f out of [0, 1]", ErrInvalidConfig, c.SlowAnswerDamping)
	}
	if c.EMAAlpha <= 0 || c.EMAAlpha > 1 {
		return fmt.Errorf("%w: ema alpha %f out of (0, 1]", ErrInvalidConfig, c.EMAAlpha)
	}
	if c.InitialAccuracy < 0 || c.InitialAccuracy > 1 {
		return fmt.Errorf("%w: initial accuracy %f out of [0, 1]", ErrInvalidConfig, c.InitialAccuracy)
	}
	if c.MinCorrectInterval <= 0 || c.MinIncorrectInterval <= 0 || c.DefaultInterval <= 0 {
		return fmt.Errorf("%w: intervals must be positive", ErrInvalidConfig)
	}
	if c.CorrectMultiplier < 1 {
		return fmt.Errorf("%w: correct multiplier %f must be >= 1", ErrInvalidConfig, c.CorrectMultiplier)
	}
	if c.IncorrectMultiplier <= 0 || c.IncorrectMultiplier > 1 {
		return fmt.Errorf("%w: incorrect multiplier %f out of (0, 1]", ErrInvalidConfig, c.IncorrectMultiplier)
	}
	if c.RecencyWindow < 0 {
		return fmt.Errorf("%w: recency window must not be negative", ErrInvalidConfig)
	}
	if c.CandidateWindow < 1 {
		return fmt.Errorf("%w: candidate window %d must be positive", ErrInvalidConfig, c.CandidateWindow)
	}
	return nil
}
