package constants

import (
	"errors"
	"strings"
)

type Priority string

const (
	PriorityNone Priority = ""
	PriorityHigh Priority = "High"
	PriorityMid  Priority = "Mid"
	PriorityLow  Priority = "Low"
)

var ErrUnknownPriority = errors.New("unknown priority")

// Rank orders priorities for sorting; tasks without a priority sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMid:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "mid", "medium":
		return PriorityMid, nil
	case "low":
		return PriorityLow, nil
	}
	return PriorityNone, ErrUnknownPriority
}

type PriorityFilter string

const (
	FilterAll  PriorityFilter = "All"
	FilterHigh PriorityFilter = "High"
	FilterMid  PriorityFilter = "Mid"
	FilterLow  PriorityFilter = "Low"
)

// ParsePriorityFilter treats an empty value as All.
func ParsePriorityFilter(s string) (PriorityFilter, error) {
	if strings.TrimSpace(s) == "" || strings.EqualFold(strings.TrimSpace(s), "all") {
		return FilterAll, nil
	}
	p, err := ParsePriority(s)
	if err != nil {
		return "", err
	}
	return PriorityFilter(p), nil
}

func (f PriorityFilter) Matches(p Priority) bool {
	if f == FilterAll || f == "" {
		return true
	}
	return Priority(f) == p
}
