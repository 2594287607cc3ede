package dateguess_test

import (
	"testing"

	"shoebox/internal/dateguess"
)

func TestFixup(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"20230704", "2023-07-04 00:00:00"},
		{"07-04-2023", "2023-07-04 00:00:00"},
		{"2023-07-04", "2023-07-04 00:00:00"},
		{"2023_07_04", "2023-07-04 00:00:00"},
		{"2023/07/04", "2023-07-04 00:00:00"},
		{"07_04_2023", "2023-07-04 00:00:00"},
		{"2023-07", "2023-07-01 00:00:00"},
		{"2023_07", "2023-07-01 00:00:00"},
		{"2023/07", "2023-07-01 00:00:00"},
		{"2023-07-04 13:45:09", "2023-07-04 13:45:09"},
		{"no-date-here", "0000-00-00 00:00:00"},
		{"", "0000-00-00 00:00:00"},
	}
	for _, tc := range cases {
		if got := dateguess.Fixup(tc.in); got != tc.want {
			t.Errorf("Fixup(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFromFilenamePrecedence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"IMG_2021-03-15.jpg", "2021-03-15"},
		{"scan_2021_03_15_b.png", "2021_03_15"},
		{"07-04-2023-party.jpg", "07-04-2023"},
		{"vacation 2019-08.jpg", "2019-08"},
		{"DSC20230704.jpg", "20230704"},
		{"holiday.jpg", ""},
	}
	for _, tc := range cases {
		if got := dateguess.FromFilename(tc.in); got != tc.want {
			t.Errorf("FromFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFromFilenameRejectsYearsOutsideGate(t *testing.T) {
	if got := dateguess.FromFilename("archive-1875-01-01.jpg"); got != "" {
		t.Fatalf("expected no guess for 19th-century year, got %q", got)
	}
	if got := dateguess.FromFilename("render-2150-01-01.jpg"); got != "" {
		t.Fatalf("expected no guess for far-future year, got %q", got)
	}
}

func TestFromPathRecognizesSlashSegments(t *testing.T) {
	if got := dateguess.FromPath("staging/2021/07/15/img.jpg"); got != "2021/07/15" {
		t.Fatalf("FromPath = %q, want 2021/07/15", got)
	}
	if got := dateguess.FromPath("staging/2021/07/img.jpg"); got != "2021/07" {
		t.Fatalf("FromPath = %q, want 2021/07", got)
	}
}

func TestInRange(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
		candidate  string
		want       bool
	}{
		{"no bounds", "", "", "2021-01-01 00:00:00", true},
		{"inside both", "2020-01-01 00:00:00", "2022-01-01 00:00:00", "2021-01-01 00:00:00", true},
		{"start only, at bound", "2020-01-01 00:00:00", "", "2020-01-01 00:00:00", true},
		{"start only, below bound", "2021-01-01 00:00:00", "", "2019-06-01 00:00:00", false},
		{"end only, past bound", "", "2020-01-01 00:00:00", "2021-01-01 00:00:00", false},
		{"end only, at bound", "", "2020-01-01 00:00:00", "2020-01-01 00:00:00", true},
		// With both bounds set the fallback branches fire: a candidate
		// past end still clears start, and one below start still clears
		// end, so each passes.
		{"both bounds, past end", "2020-01-01 00:00:00", "2022-01-01 00:00:00", "2023-01-01 00:00:00", true},
		{"both bounds, below start", "2020-01-01 00:00:00", "2022-01-01 00:00:00", "2019-06-01 00:00:00", true},
		{"unparseable candidate", "2020-01-01 00:00:00", "", "0000-00-00 00:00:00", false},
	}
	for _, tc := range cases {
		if got := dateguess.InRange(tc.start, tc.end, tc.candidate); got != tc.want {
			t.Errorf("%s: InRange(%q, %q, %q) = %v, want %v", tc.name, tc.start, tc.end, tc.candidate, got, tc.want)
		}
	}
}

func TestGuessLabelsIndependentlyFiltered(t *testing.T) {
	guesses := dateguess.Guess(
		"holiday.jpg",
		"staging/2019/06/holiday.jpg",
		"2023-01-01 08:00:00",
		"2021-01-01 00:00:00",
		"",
	)

	// No date pattern in the bare filename.
	if guesses.Filename != "" {
		t.Fatalf("filename guess = %q, want empty", guesses.Filename)
	}
	// Path candidate 2019-06-01 is below the start bound and filtered out.
	if guesses.Pathname != "" {
		t.Fatalf("pathname guess should be filtered out, got %q", guesses.Pathname)
	}
	if guesses.FileDate != "2023-01-01 08:00:00" {
		t.Fatalf("filedate guess = %q", guesses.FileDate)
	}
}

func TestGuessFilenameCandidateNormalized(t *testing.T) {
	guesses := dateguess.Guess(
		"IMG_2021-03-15.jpg",
		"staging/batch/IMG_2021-03-15.jpg",
		"",
		"",
		"",
	)
	if guesses.Filename != "2021-03-15 00:00:00" {
		t.Fatalf("filename guess = %q", guesses.Filename)
	}
	// The full path contains the same substring, so the path label
	// carries it too.
	if guesses.Pathname != "2021-03-15 00:00:00" {
		t.Fatalf("pathname guess = %q", guesses.Pathname)
	}
}

func TestGuessWithoutBounds(t *testing.T) {
	guesses := dateguess.Guess("holiday.jpg", "staging/misc/holiday.jpg", "2020-05-05 12:00:00", "", "")
	if guesses.Filename != "" || guesses.Pathname != "" {
		t.Fatalf("expected no pattern guesses, got %+v", guesses)
	}
	if guesses.FileDate != "2020-05-05 12:00:00" {
		t.Fatalf("filedate guess = %q", guesses.FileDate)
	}
}
