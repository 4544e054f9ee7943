package chat

import (
	"fmt"
	"strings"
	"time"
)

// TimeRange limits retrieval to recently updated documents
type TimeRange string

const (
	TimeRangeAny   TimeRange = ""
	TimeRangeDay   TimeRange = "day"
	TimeRangeWeek  TimeRange = "week"
	TimeRangeMonth TimeRange = "month"
	TimeRangeYear  TimeRange = "year"
)

// ParseTimeRange accepts the names used in settings files and flags
func ParseTimeRange(s string) (TimeRange, error) {
	switch r := TimeRange(strings.ToLower(strings.TrimSpace(s))); r {
	case TimeRangeAny, TimeRangeDay, TimeRangeWeek, TimeRangeMonth, TimeRangeYear:
		return r, nil
	case "any", "all":
		return TimeRangeAny, nil
	default:
		return "", fmt.Errorf("unknown time range %q", s)
	}
}

// Cutoff returns the oldest update time allowed by the range, or nil
func (r TimeRange) Cutoff(now time.Time) *time.Time {
	var cutoff time.Time
	switch r {
	case TimeRangeDay:
		cutoff = now.AddDate(0, 0, -1)
	case TimeRangeWeek:
		cutoff = now.AddDate(0, 0, -7)
	case TimeRangeMonth:
		cutoff = now.AddDate(0, -1, 0)
	case TimeRangeYear:
		cutoff = now.AddDate(-1, 0, 0)
	default:
		return nil
	}
	return &cutoff
}

// BuildFilters assembles retrieval filters from the user's selections
func BuildFilters(sources, documentSets []string, timeRange TimeRange, now time.Time) RetrievalFilters {
	return RetrievalFilters{
		SourceTypes:  nonEmpty(sources),
		DocumentSets: nonEmpty(documentSets),
		TimeCutoff:   timeRange.Cutoff(now),
	}
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
