package scheduler

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CommandKind identifies a parsed scheduling request.
type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandSchedule
	CommandCancel
	CommandResults
)

// Command is a parsed scheduling request.
type Command struct {
	Kind     CommandKind
	Topic    string
	Duration time.Duration
	Interval time.Duration
}

// Usage is returned for input matching no command.
const Usage = "Use: 'research <topic> for <N> minutes every <M> seconds', " +
	"'cancel research on <topic>' or 'results'."

var (
	scheduleCmd = regexp.MustCompile(`(?i)research\s+(?:about\s+)?(.+?)\s+for\s+(\d+)\s+minutes?.*?every\s+(\d+)\s+seconds?`)
	cancelCmd   = regexp.MustCompile(`(?i)cancel\s+research\s+on\s+(.+)`)
	resultsCmd  = regexp.MustCompile(`(?i)^\s*(?:check\s+)?results\s*$`)
)

// ParseCommand matches text against the scheduling grammar.
func ParseCommand(text string) (Command, bool) {
	if m := cancelCmd.FindStringSubmatch(text); m != nil {
		return Command{Kind: CommandCancel, Topic: strings.TrimSpace(m[1])}, true
	}
	if m := scheduleCmd.FindStringSubmatch(text); m != nil {
		duration, ok := parseCount(m[2], time.Minute)
		if !ok {
			return Command{}, false
		}
		interval, ok := parseCount(m[3], time.Second)
		if !ok {
			return Command{}, false
		}
		return Command{
			Kind:     CommandSchedule,
			Topic:    strings.TrimSpace(m[1]),
			Duration: duration,
			Interval: interval,
		}, true
	}
	if resultsCmd.MatchString(text) {
		return Command{Kind: CommandResults}, true
	}
	return Command{}, false
}

// parseCount converts a digit string to n units, rejecting counts whose
// duration would not fit in a time.Duration.
func parseCount(digits string, unit time.Duration) (time.Duration, bool) {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n > math.MaxInt64/int64(unit) {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

// Commands executes free-form scheduling requests against a Scheduler.
type Commands struct {
	scheduler *Scheduler
}

// NewCommands binds the command grammar to s.
func NewCommands(s *Scheduler) *Commands {
	return &Commands{scheduler: s}
}

// Handle parses and executes text, returning a status line. Unrecognized
// input yields Usage.
func (c *Commands) Handle(text string) string {
	cmd, ok := ParseCommand(text)
	if !ok {
		return Usage
	}

	switch cmd.Kind {
	case CommandSchedule:
		status, err := c.scheduler.Schedule(cmd.Topic, cmd.Duration, cmd.Interval)
		if err != nil {
			return fmt.Sprintf("❌ Could not schedule '%s': %v", cmd.Topic, err)
		}
		return status
	case CommandCancel:
		return c.scheduler.Cancel(cmd.Topic)
	case CommandResults:
		return FormatResults(c.scheduler.DrainResults())
	default:
		return Usage
	}
}

// FormatResults renders drained tick results for display.
func FormatResults(results []string) string {
	if len(results) == 0 {
		return "No scheduled research results available."
	}
	return "📋 Scheduled research results:\n\n" + strings.Join(results, "\n")
}
