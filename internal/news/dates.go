package news

import (
	"strconv"
	"strings"
	"time"

	"github.com/zankke/first-ent/helpers"
	"github.com/zankke/first-ent/logger"
)

// absoluteFormats are tried in order. Non-padded layouts also accept
// zero-padded values, so "2024년 03월 15일" parses with "2006년 1월 2일".
var absoluteFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006년 1월 2일",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006. 1. 2.",
}

// monthDayFormat has no year. The current year is injected before parsing;
// a result in the future rolls back one year.
const monthDayFormat = "2006년 1월 2일"

// Normalizer converts heterogeneous date strings from the search provider
// into timestamps. It is total: any input yields a timestamp or nil,
// never an error.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a normalizer using the wall clock
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewNormalizerAt creates a normalizer with an injected clock, for callers
// that need reproducible relative-date handling.
func NewNormalizerAt(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Parse converts a date string into a timestamp, or nil when the string is
// empty or matches no known absolute or relative format.
func (n *Normalizer) Parse(dateStr string) *time.Time {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return nil
	}

	for _, format := range absoluteFormats {
		if parsed, err := time.Parse(format, dateStr); err == nil {
			return &parsed
		}
	}

	if parsed := n.parseMonthDay(dateStr); parsed != nil {
		return parsed
	}

	if parsed := n.parseRelative(dateStr); parsed != nil {
		return parsed
	}

	logger.Warn("날짜 형식을 해석할 수 없음: %s", dateStr)
	return nil
}

// parseMonthDay handles "3월 15일" by assuming the year is the current one
func (n *Normalizer) parseMonthDay(dateStr string) *time.Time {
	now := n.now()
	withYear := strconv.Itoa(now.Year()) + "년 " + dateStr
	parsed, err := time.Parse(monthDayFormat, withYear)
	if err != nil {
		return nil
	}
	if parsed.After(now) {
		parsed = parsed.AddDate(-1, 0, 0)
	}
	return &parsed
}

// parseRelative handles "N일 전", "N주 전" and "N시간 전"
func (n *Normalizer) parseRelative(dateStr string) *time.Time {
	now := n.now()

	units := []struct {
		suffix string
		delta  func(count int) time.Time
	}{
		{"일 전", func(c int) time.Time { return now.AddDate(0, 0, -c) }},
		{"주 전", func(c int) time.Time { return now.AddDate(0, 0, -7*c) }},
		{"시간 전", func(c int) time.Time { return now.Add(-time.Duration(c) * time.Hour) }},
	}

	for _, unit := range units {
		if !strings.Contains(dateStr, unit.suffix) {
			continue
		}
		part, err := helpers.GetSplitPart(dateStr, unit.suffix, 0)
		if err != nil {
			return nil
		}
		count, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil
		}
		parsed := unit.delta(count)
		return &parsed
	}

	return nil
}
