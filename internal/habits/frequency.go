package habits

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

// Kind is the family a frequency rule belongs to.
type Kind int

const (
	KindDaily Kind = iota
	KindWeekdays
	KindWeekends
	KindWeekly
	KindTimesPerWeek
	KindMonthly
)

// Frequency is a parsed habit frequency rule.
type Frequency struct {
	Kind  Kind
	Times int // completions expected per rolling week, for KindWeekly and KindTimesPerWeek
}

// ParseFrequency parses daily, weekly, monthly, weekdays, weekends and Nx_week (N in 1..7).
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case constants.FrequencyDaily:
		return Frequency{Kind: KindDaily}, nil
	case constants.FrequencyWeekdays:
		return Frequency{Kind: KindWeekdays}, nil
	case constants.FrequencyWeekends:
		return Frequency{Kind: KindWeekends}, nil
	case constants.FrequencyWeekly:
		return Frequency{Kind: KindWeekly, Times: 1}, nil
	case constants.FrequencyMonthly:
		return Frequency{Kind: KindMonthly}, nil
	}

	lower := strings.ToLower(strings.TrimSpace(s))
	if n, ok := strings.CutSuffix(lower, constants.FrequencyXWeek); ok {
		times, err := strconv.Atoi(n)
		if err != nil || times < 1 || times > 7 {
			return Frequency{}, fmt.Errorf("invalid frequency %q: times per week must be between 1 and 7", s)
		}
		return Frequency{Kind: KindTimesPerWeek, Times: times}, nil
	}

	return Frequency{}, fmt.Errorf("invalid frequency %q (expected daily, weekly, monthly, weekdays, weekends or Nx_week)", s)
}

// String returns the canonical form accepted by ParseFrequency.
func (f Frequency) String() string {
	switch f.Kind {
	case KindDaily:
		return constants.FrequencyDaily
	case KindWeekdays:
		return constants.FrequencyWeekdays
	case KindWeekends:
		return constants.FrequencyWeekends
	case KindWeekly:
		return constants.FrequencyWeekly
	case KindTimesPerWeek:
		return fmt.Sprintf("%d%s", f.Times, constants.FrequencyXWeek)
	case KindMonthly:
		return constants.FrequencyMonthly
	default:
		return "unknown"
	}
}

// WeeklyTarget is the number of completions a full calendar week asks for.
func (f Frequency) WeeklyTarget() int {
	switch f.Kind {
	case KindDaily:
		return 7
	case KindWeekdays:
		return 5
	case KindWeekends:
		return 2
	case KindWeekly, KindTimesPerWeek:
		return f.Times
	default:
		return 1
	}
}

// fixedDays reports whether the rule is tied to specific weekdays.
func (f Frequency) fixedDays() bool {
	return f.Kind == KindDaily || f.Kind == KindWeekdays || f.Kind == KindWeekends
}

// requiredOn applies to fixed-day rules only.
func (f Frequency) requiredOn(wd time.Weekday) bool {
	switch f.Kind {
	case KindDaily:
		return true
	case KindWeekdays:
		return wd >= time.Monday && wd <= time.Friday
	case KindWeekends:
		return wd == time.Saturday || wd == time.Sunday
	default:
		return false
	}
}

// Describe renders the rule for people, e.g. "3 times a week".
func (f Frequency) Describe() string {
	switch f.Kind {
	case KindDaily:
		return "every day"
	case KindWeekdays:
		return "Monday to Friday"
	case KindWeekends:
		return "Saturday and Sunday"
	case KindWeekly:
		return "once a week"
	case KindTimesPerWeek:
		if f.Times == 1 {
			return "once a week"
		}
		return fmt.Sprintf("%d times a week", f.Times)
	case KindMonthly:
		return "once a month"
	default:
		return "unknown"
	}
}
