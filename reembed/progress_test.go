package reembed

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Update(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "questions", 100, 10)

	tracker.Start()
	tracker.Update(25)
	assert.Contains(t, buf.String(), "25/100 questions (25.0%)")
	tracker.Update(100)

	assert.Greater(t, tracker.Elapsed(), time.Duration(0))
	assert.Contains(t, buf.String(), "100/100 questions")
	assert.Contains(t, buf.String(), "100.0%")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "answers", 100, 10)

	tracker.Start()
	tracker.Update(75)
	tracker.Finish()

	out := buf.String()
	assert.Contains(t, out, "100/100 answers")
	assert.Contains(t, out, "answers/s")
	assert.Contains(t, out, "\n")
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "questions", 100, 10)

	tracker.Start()
	tracker.Update(150)
	assert.Contains(t, buf.String(), "100/100")
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "questions", 0, 10)

	tracker.Start()
	tracker.Finish()
	assert.Contains(t, buf.String(), "0/0")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "questions", 100, 10)

	tracker.Update(10)
	tracker.Finish()
	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
}

func TestProgressTracker_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "questions", 1000, 100)
	tracker.Start()

	tracker.Update(50)
	assert.Empty(t, buf.String(), "under the interval")

	tracker.Update(100)
	assert.NotEmpty(t, buf.String(), "at the interval")

	buf.Reset()
	tracker.Update(150)
	assert.Empty(t, buf.String(), "less than an interval since the last report")

	tracker.Update(250)
	assert.NotEmpty(t, buf.String())
}

func TestProgressTracker_NilWriter(t *testing.T) {
	tracker := NewProgressTracker(nil, "answers", 10, 1)
	tracker.Start()
	tracker.Update(5)
	tracker.Finish()
}
