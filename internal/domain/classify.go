package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// ClassWindows holds the temporal tolerances for one source class.
//
// LookAhead bounds how far in the future a record's start may be before it
// is excluded entirely (too-far-future events are not surfaced). Grace is
// the tolerance past a record's end during which it still shows as ENDING.
type ClassWindows struct {
	LookAhead time.Duration
	Grace     time.Duration
}

// Classifier derives an incident's temporal status from its time window.
// It is the only component in the pipeline that reads the clock; the clock
// is injected so classification is deterministic under test.
type Classifier struct {
	clock   clockwork.Clock
	windows map[SourceClass]ClassWindows
}

// NewClassifier creates a Classifier with per-class windows. A nil clock
// falls back to the real clock.
func NewClassifier(clock clockwork.Clock, live, planned ClassWindows) *Classifier {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Classifier{
		clock: clock,
		windows: map[SourceClass]ClassWindows{
			ClassLive:    live,
			ClassPlanned: planned,
		},
	}
}

// Classify returns the activity status for a time window, or ok=false when
// the record should be excluded (expired past its grace window, or starting
// beyond the look-ahead horizon). Rules are evaluated in order:
//
//  1. No start and no end: ACTIVE (most feeds omit both; assume ongoing).
//  2. Start in the future: UPCOMING if within the class look-ahead, else excluded.
//  3. End in the past: ENDING if within the class grace window, else excluded.
//  4. Otherwise ACTIVE.
func (c *Classifier) Classify(w TimeWindow, class SourceClass) (Status, bool) {
	win, ok := c.windows[class]
	if !ok {
		win = c.windows[ClassLive]
	}
	now := c.clock.Now()

	if w.Start == nil && w.End == nil {
		return StatusActive, true
	}

	if w.Start != nil && w.Start.After(now) {
		if w.Start.Sub(now) > win.LookAhead {
			return "", false
		}
		return StatusUpcoming, true
	}

	if w.End != nil && w.End.Before(now) {
		if now.Sub(*w.End) > win.Grace {
			return "", false
		}
		return StatusEnding, true
	}

	return StatusActive, true
}

// Now exposes the classifier's clock reading for callers that must stamp
// output consistently with classification.
func (c *Classifier) Now() time.Time {
	return c.clock.Now()
}
