package reembed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestProgress_Finish(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, 100, 10, steppingClock(time.Second))

	p.Update(75)
	p.Finish()

	out := buf.String()
	assert.Contains(t, out, "100/100 (100.0%)")
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Greater(t, p.Elapsed(), time.Duration(0))
}

func TestProgress_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, 0, 10, steppingClock(time.Second))
	p.Finish()
	assert.Contains(t, buf.String(), "0/0 (0.0%)")
}

func TestProgress_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, 100, 10, steppingClock(time.Second))
	p.Update(150)
	assert.Equal(t, 100, p.done)
	assert.Contains(t, buf.String(), "100/100")
}

func TestProgress_Rate(t *testing.T) {
	var buf bytes.Buffer
	// Construction reads the clock once, the report once more: 2s apart
	p := newProgress(&buf, 1000, 100, steppingClock(2*time.Second))
	p.Update(100)
	assert.Contains(t, buf.String(), "100/1000 (10.0%) - 50.0 chunks/s")
}

func TestProgress_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, 1000, 100, steppingClock(time.Second))

	p.Update(50)
	assert.Empty(t, buf.String(), "under the interval")

	p.Update(100)
	assert.NotEmpty(t, buf.String())

	buf.Reset()
	p.Update(150)
	assert.Empty(t, buf.String(), "interval counts from the last report")

	p.Update(250)
	assert.NotEmpty(t, buf.String())
}
