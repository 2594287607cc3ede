package dateguess

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Sentinel is the canonical value for a string with no recognizable date.
const Sentinel = "0000-00-00 00:00:00"

// Layout is the canonical date-time format every candidate normalizes to.
const Layout = "2006-01-02 15:04:05"

type pattern struct {
	re   *regexp.Regexp
	name string
}

// Filename patterns in precedence order. First accepted match wins; a match
// is accepted only when its year falls in [1900, 2099], otherwise the search
// moves on to the next pattern.
var filenamePatterns = []pattern{
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), "YYYY-MM-DD"},
	{regexp.MustCompile(`\d{4}_\d{2}_\d{2}`), "YYYY_MM_DD"},
	{regexp.MustCompile(`\d{2}-\d{2}-\d{4}`), "MM-DD-YYYY"},
	{regexp.MustCompile(`\d{2}_\d{2}_\d{4}`), "MM_DD_YYYY"},
	{regexp.MustCompile(`\d{4}-\d{2}`), "YYYY-MM"},
	{regexp.MustCompile(`\d{4}_\d{2}`), "YYYY_MM"},
	{regexp.MustCompile(`\d{8}`), "YYYYMMDD"},
}

// Path patterns additionally recognize slash-separated date segments.
var pathPatterns = []pattern{
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), "YYYY-MM-DD"},
	{regexp.MustCompile(`\d{4}_\d{2}_\d{2}`), "YYYY_MM_DD"},
	{regexp.MustCompile(`\d{4}/\d{2}/\d{2}`), "YYYY/MM/DD"},
	{regexp.MustCompile(`\d{4}/\d{2}`), "YYYY/MM"},
	{regexp.MustCompile(`\d{2}-\d{2}-\d{4}`), "MM-DD-YYYY"},
	{regexp.MustCompile(`\d{2}_\d{2}_\d{4}`), "MM_DD_YYYY"},
	{regexp.MustCompile(`\d{4}-\d{2}`), "YYYY-MM"},
	{regexp.MustCompile(`\d{4}_\d{2}`), "YYYY_MM"},
	{regexp.MustCompile(`\d{8}`), "YYYYMMDD"},
}

var (
	yearRe = regexp.MustCompile(`\d{4}`)
	timeRe = regexp.MustCompile(`\d{2}:\d{2}:\d{2}`)
)

// FromFilename returns the first raw date-looking substring of the filename
// with an acceptable year, or "" when none is found.
func FromFilename(filename string) string {
	return search(filenamePatterns, filename)
}

// FromPath is FromFilename over a full path, recognizing slash-separated
// year/month/day segments as well.
func FromPath(path string) string {
	return search(pathPatterns, path)
}

func search(patterns []pattern, value string) string {
	for _, p := range patterns {
		if match := p.re.FindString(value); match != "" && HasValidYear(match) {
			return match
		}
	}
	return ""
}

// HasValidYear reports whether the first 4-digit run in the string is a year
// in [1900, 2099].
func HasValidYear(value string) bool {
	match := yearRe.FindString(value)
	if match == "" {
		return false
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return false
	}
	return year >= 1900 && year <= 2099
}

// Fixup date patterns, full-date forms first so "2023-07-04" is not consumed
// by the month-only forms.
var fixupFull = []pattern{
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), "YYYY-MM-DD"},
	{regexp.MustCompile(`\d{4}_\d{2}_\d{2}`), "YYYY_MM_DD"},
	{regexp.MustCompile(`\d{4}/\d{2}/\d{2}`), "YYYY/MM/DD"},
	{regexp.MustCompile(`\d{2}-\d{2}-\d{4}`), "MM-DD-YYYY"},
	{regexp.MustCompile(`\d{2}_\d{2}_\d{4}`), "MM_DD_YYYY"},
	{regexp.MustCompile(`\d{8}`), "YYYYMMDD"},
}

var fixupMonth = []pattern{
	{regexp.MustCompile(`\d{4}-\d{2}`), "YYYY-MM"},
	{regexp.MustCompile(`\d{4}_\d{2}`), "YYYY_MM"},
	{regexp.MustCompile(`\d{4}/\d{2}`), "YYYY/MM"},
}

// Fixup normalizes a raw date match, plus an optional trailing HH:MM:SS
// substring, into the canonical "YYYY-MM-DD HH:MM:SS" form. Month-only
// matches default the day to 01; absent time defaults to 00:00:00; a string
// with no recognizable date yields the Sentinel.
func Fixup(value string) string {
	date := ""
	for _, p := range fixupFull {
		if match := p.re.FindString(value); match != "" {
			date = convertDate(match, p.name)
			break
		}
	}
	if date == "" {
		for _, p := range fixupMonth {
			if match := p.re.FindString(value); match != "" {
				date = convertDate(match, p.name)
				break
			}
		}
	}
	if date == "" {
		return Sentinel
	}

	clock := "00:00:00"
	if match := timeRe.FindString(value); match != "" {
		clock = match
	}
	return date + " " + clock
}

func convertDate(date, name string) string {
	switch name {
	case "YYYY-MM-DD":
		return date
	case "YYYY_MM_DD", "YYYY/MM/DD":
		return strings.NewReplacer("_", "-", "/", "-").Replace(date)
	case "MM-DD-YYYY":
		parts := strings.Split(date, "-")
		return parts[2] + "-" + parts[0] + "-" + parts[1]
	case "MM_DD_YYYY":
		parts := strings.Split(date, "_")
		return parts[2] + "-" + parts[0] + "-" + parts[1]
	case "YYYYMMDD":
		return date[0:4] + "-" + date[4:6] + "-" + date[6:8]
	case "YYYY-MM":
		return date + "-01"
	case "YYYY_MM", "YYYY/MM":
		return strings.NewReplacer("_", "-", "/", "-").Replace(date) + "-01"
	}
	return "1900-01-01"
}

// isAfter reports candidate >= bound. Unparseable values never satisfy a
// bound.
func isAfter(candidate, bound string) bool {
	c, err := time.Parse(Layout, candidate)
	if err != nil {
		return false
	}
	b, err := time.Parse(Layout, bound)
	if err != nil {
		return false
	}
	return !c.Before(b)
}

// isBefore reports candidate <= bound.
func isBefore(candidate, bound string) bool {
	c, err := time.Parse(Layout, candidate)
	if err != nil {
		return false
	}
	b, err := time.Parse(Layout, bound)
	if err != nil {
		return false
	}
	return !c.After(b)
}

// InRange applies the inclusive range filter. Empty bounds mean no
// constraint from that side. The branch order is load-bearing and matches
// the long-standing reconciliation behavior: with both bounds set, a
// candidate at or past start still passes even when it exceeds end, because
// the start-only branch is consulted after the combined one fails.
func InRange(start, end, candidate string) bool {
	if start == "" && end == "" {
		return true
	}

	if start != "" || end != "" {
		if start != "" && end != "" && isAfter(candidate, start) && isBefore(candidate, end) {
			return true
		} else if start != "" && isAfter(candidate, start) {
			return true
		} else if end != "" && isBefore(candidate, end) {
			return true
		}
	}

	return false
}

// Guesses carries the per-file date candidates, each independently
// range-filtered. A label is empty when its candidate found no pattern or
// fell outside the range.
type Guesses struct {
	Filename string `json:"filename,omitempty"`
	Pathname string `json:"pathname,omitempty"`
	FileDate string `json:"filedate,omitempty"`
}

// Guess runs the engine against the filename and the full path, and carries
// the filesystem date through the same range filter. fileDate is already in
// canonical form (or empty when unavailable); start and end are canonical
// bounds or empty.
func Guess(filename, path, fileDate, start, end string) Guesses {
	var guesses Guesses

	if raw := FromFilename(filename); raw != "" {
		if fixed := Fixup(raw); InRange(start, end, fixed) {
			guesses.Filename = fixed
		}
	}
	if raw := FromPath(path); raw != "" {
		if fixed := Fixup(raw); InRange(start, end, fixed) {
			guesses.Pathname = fixed
		}
	}
	if fileDate != "" && InRange(start, end, fileDate) {
		guesses.FileDate = fileDate
	}

	return guesses
}
