package fmp

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"earnings-reversal/internal/types"
)

var clockPattern = regexp.MustCompile(`\b(\d{1,2}):?(\d{2})?\s*(a\.?m\.?|p\.?m\.?)\b`)

// DetectCallTime classifies a transcript as a pre-market or after-market
// call. It checks the intro first (greetings, clock times, contextual
// phrases), then falls back to a majority vote over analyst greetings in
// the whole transcript.
func DetectCallTime(transcript string) types.CallTime {
	if transcript == "" {
		return types.CallTimeUnknown
	}

	// Greeting and time may come after the operator intro and disclaimers
	introEnd := len(transcript)
	if introEnd > 5000 {
		introEnd = 5000
	}
	intro := strings.ToLower(transcript[:introEnd])

	if strings.Contains(intro, "good morning") {
		return types.CallTimeBMO
	}
	if strings.Contains(intro, "good afternoon") || strings.Contains(intro, "good evening") {
		return types.CallTimeAMC
	}

	for _, match := range clockPattern.FindAllStringSubmatch(intro, -1) {
		hour, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		meridiem := strings.ReplaceAll(match[3], ".", "")
		if strings.HasPrefix(meridiem, "a") {
			if hour >= 5 && hour <= 11 {
				return types.CallTimeBMO
			}
		} else {
			// Noon-3pm calls are ambiguous, skip those
			if hour >= 4 && hour != 12 {
				return types.CallTimeAMC
			}
		}
	}

	if strings.Contains(intro, "this morning") {
		return types.CallTimeBMO
	}
	if strings.Contains(intro, "this afternoon") || strings.Contains(intro, "this evening") {
		return types.CallTimeAMC
	}

	if strings.Contains(intro, "after the close") || strings.Contains(intro, "after market") || strings.Contains(intro, "after hours") {
		return types.CallTimeAMC
	}
	if strings.Contains(intro, "before the open") || strings.Contains(intro, "pre-market") || strings.Contains(intro, "premarket") {
		return types.CallTimeBMO
	}

	// Analysts greet when starting their Q&A questions; vote over the
	// whole transcript when the intro gave nothing.
	full := strings.ToLower(transcript)
	bmoVotes := strings.Count(full, "good morning")
	amcVotes := strings.Count(full, "good afternoon") + strings.Count(full, "good evening")

	switch {
	case bmoVotes > amcVotes:
		return types.CallTimeBMO
	case amcVotes > bmoVotes:
		return types.CallTimeAMC
	}
	return types.CallTimeUnknown
}

// DateToQuarter maps a YYYY-MM-DD date onto calendar year and quarter.
// Used as a fallback when the transcript-dates listing has no entry for
// an event; fiscal calendars that straddle calendar quarters may miss.
func DateToQuarter(dateStr string) (year, quarter int) {
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Now().Year(), 1
	}
	switch {
	case t.Month() <= 3:
		quarter = 1
	case t.Month() <= 6:
		quarter = 2
	case t.Month() <= 9:
		quarter = 3
	default:
		quarter = 4
	}
	return t.Year(), quarter
}
