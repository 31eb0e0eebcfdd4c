package scheduler

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Job is one recurring research task. Fields other than running are guarded
// by the owning Scheduler's lock.
type Job struct {
	ID        string
	Topic     string
	Interval  time.Duration
	ExpiresAt time.Time
	Cursor    int // Offset passed to the next tick's task
	Ticks     int // Completed ticks

	entryID cron.EntryID
	running atomic.Bool
}

// JobInfo is a read-only snapshot of a Job.
type JobInfo struct {
	ID        string        `json:"id"`
	Topic     string        `json:"topic"`
	Interval  time.Duration `json:"interval"`
	ExpiresAt time.Time     `json:"expires_at"`
	Cursor    int           `json:"cursor"`
	Ticks     int           `json:"ticks"`
}

func (j *Job) info() JobInfo {
	return JobInfo{
		ID:        j.ID,
		Topic:     j.Topic,
		Interval:  j.Interval,
		ExpiresAt: j.ExpiresAt,
		Cursor:    j.Cursor,
		Ticks:     j.Ticks,
	}
}

// newJobID embeds the topic plus a short random suffix.
func newJobID(topic string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("job_%s_%s", strings.ReplaceAll(topic, " ", "_"), suffix)
}
