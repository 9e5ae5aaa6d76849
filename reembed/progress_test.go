package reembed

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_ReportsAtInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "Re-embedding", 100, 50)
	tracker.Start(0)

	tracker.Add(30)
	assert.Empty(t, buf.String())

	tracker.Add(30)
	assert.Contains(t, buf.String(), "Re-embedding: 60/100 (60.0%)")

	tracker.Finish()
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestProgressTracker_ResumeAndCap(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "Re-extracting", 10, 1)
	tracker.Start(4)
	assert.Equal(t, 4, tracker.Current())

	tracker.Add(100)
	assert.Equal(t, 10, tracker.Current())
	assert.Contains(t, buf.String(), "10/10 (100.0%)")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "x", 10, 1)
	tracker.Add(5)
	tracker.Finish()
	assert.Zero(t, tracker.Current())
	assert.Zero(t, tracker.Elapsed())
	assert.Empty(t, buf.String())
}
