package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2025, 11, 3, 14, 0, 0, 0, time.UTC)

func newTestClassifier(live, planned ClassWindows) *Classifier {
	return NewClassifier(clockwork.NewFakeClockAt(testNow), live, planned)
}

func defaultTestClassifier() *Classifier {
	return newTestClassifier(
		ClassWindows{LookAhead: 24 * time.Hour, Grace: 30 * time.Minute},
		ClassWindows{LookAhead: 7 * 24 * time.Hour, Grace: 24 * time.Hour},
	)
}

func ptr(t time.Time) *time.Time { return &t }

func TestClassify_NoTimestamps(t *testing.T) {
	c := defaultTestClassifier()

	status, ok := c.Classify(TimeWindow{}, ClassLive)

	assert.True(t, ok)
	assert.Equal(t, StatusActive, status)
}

func TestClassify_FutureStart(t *testing.T) {
	c := defaultTestClassifier()

	t.Run("within look-ahead is upcoming", func(t *testing.T) {
		w := TimeWindow{Start: ptr(testNow.Add(6 * time.Hour))}
		status, ok := c.Classify(w, ClassLive)
		assert.True(t, ok)
		assert.Equal(t, StatusUpcoming, status)
	})

	t.Run("beyond look-ahead is excluded", func(t *testing.T) {
		w := TimeWindow{Start: ptr(testNow.Add(48 * time.Hour))}
		_, ok := c.Classify(w, ClassLive)
		assert.False(t, ok)
	})

	t.Run("planned work gets the longer horizon", func(t *testing.T) {
		w := TimeWindow{Start: ptr(testNow.Add(5 * 24 * time.Hour))}

		_, ok := c.Classify(w, ClassLive)
		assert.False(t, ok)

		status, ok := c.Classify(w, ClassPlanned)
		assert.True(t, ok)
		assert.Equal(t, StatusUpcoming, status)
	})
}

func TestClassify_PastEnd(t *testing.T) {
	t.Run("45m past a 30m grace window is excluded", func(t *testing.T) {
		c := newTestClassifier(
			ClassWindows{LookAhead: 24 * time.Hour, Grace: 30 * time.Minute},
			ClassWindows{LookAhead: 7 * 24 * time.Hour, Grace: 24 * time.Hour},
		)
		w := TimeWindow{End: ptr(testNow.Add(-45 * time.Minute))}
		_, ok := c.Classify(w, ClassLive)
		assert.False(t, ok)
	})

	t.Run("45m past a 10m grace window is excluded", func(t *testing.T) {
		c := newTestClassifier(
			ClassWindows{LookAhead: 24 * time.Hour, Grace: 10 * time.Minute},
			ClassWindows{LookAhead: 7 * 24 * time.Hour, Grace: 24 * time.Hour},
		)
		w := TimeWindow{End: ptr(testNow.Add(-45 * time.Minute))}
		_, ok := c.Classify(w, ClassLive)
		assert.False(t, ok)
	})

	t.Run("20m past a 30m grace window is ending", func(t *testing.T) {
		c := newTestClassifier(
			ClassWindows{LookAhead: 24 * time.Hour, Grace: 30 * time.Minute},
			ClassWindows{LookAhead: 7 * 24 * time.Hour, Grace: 24 * time.Hour},
		)
		w := TimeWindow{End: ptr(testNow.Add(-20 * time.Minute))}
		status, ok := c.Classify(w, ClassLive)
		assert.True(t, ok)
		assert.Equal(t, StatusEnding, status)
	})

	t.Run("construction keeps showing a day after it ends", func(t *testing.T) {
		c := defaultTestClassifier()
		w := TimeWindow{End: ptr(testNow.Add(-5 * time.Hour))}

		_, ok := c.Classify(w, ClassLive)
		assert.False(t, ok)

		status, ok := c.Classify(w, ClassPlanned)
		assert.True(t, ok)
		assert.Equal(t, StatusEnding, status)
	})
}

func TestClassify_Active(t *testing.T) {
	c := defaultTestClassifier()

	t.Run("started in the past with no end", func(t *testing.T) {
		w := TimeWindow{Start: ptr(testNow.Add(-time.Hour))}
		status, ok := c.Classify(w, ClassLive)
		assert.True(t, ok)
		assert.Equal(t, StatusActive, status)
	})

	t.Run("inside the start/end window", func(t *testing.T) {
		w := TimeWindow{
			Start: ptr(testNow.Add(-2 * time.Hour)),
			End:   ptr(testNow.Add(2 * time.Hour)),
		}
		status, ok := c.Classify(w, ClassLive)
		assert.True(t, ok)
		assert.Equal(t, StatusActive, status)
	})

	t.Run("unknown source class falls back to live windows", func(t *testing.T) {
		w := TimeWindow{End: ptr(testNow.Add(-45 * time.Minute))}
		_, ok := c.Classify(w, SourceClass("unknown"))
		assert.False(t, ok)
	})
}
