package simdate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Simulation dates are free text ("65 Million BC", "Near Future", "1945").
// ParseValue collapses them onto one signed axis so records can be ordered.
// The axis deliberately mixes "years AD" with "years before present"; the
// curated datasets rely on that behavior, so it is kept verbatim.

const (
	PresentYear = 2026
	FutureValue = 3000
)

const (
	EraPreHistory = "pre-history"
	EraAntiquity  = "antiquity"
	EraModern     = "modern"
	EraFuture     = "future"
)

var numberPattern = regexp.MustCompile(`[\d.]+`)

func ParseValue(date string) float64 {
	if date == "" {
		return math.Inf(-1)
	}

	lower := strings.ToLower(date)

	if strings.Contains(lower, "present") {
		return PresentYear
	}
	if strings.Contains(lower, "future") {
		return FutureValue
	}

	match := numberPattern.FindString(lower)
	if match == "" {
		return 0
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}

	if strings.Contains(lower, "billion") {
		value *= 1e9
	} else if strings.Contains(lower, "million") {
		value *= 1e6
	}

	if strings.Contains(lower, "ago") || strings.Contains(lower, "bc") {
		value = -value
	}

	return value
}

// Era buckets a date string into a coarse period tag. Feed records carry it
// as a derived label; filtering itself is driven by the manifest's shards.
func Era(date string) string {
	if date == "" {
		return EraModern
	}

	lower := strings.ToLower(date)

	if strings.Contains(lower, "billion") || strings.Contains(lower, "million") ||
		strings.Contains(lower, "bc") || strings.Contains(lower, "pre-history") {
		return EraPreHistory
	}
	if strings.Contains(lower, "present") || strings.Contains(lower, "future") {
		return EraFuture
	}

	match := numberPattern.FindString(lower)
	if match == "" {
		return EraModern
	}

	year, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return EraModern
	}

	switch {
	case year < 1500:
		return EraAntiquity
	case year > 2025:
		return EraFuture
	default:
		return EraModern
	}
}
