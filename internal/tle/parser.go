package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/satwatch/satwatch/internal/metrics"
)

// Parse reads NORAD two-line element text from r and returns the element sets
// in input order. Records are matched by leading marker character: a line
// beginning with "1" opens a record and the next line must begin with "2".
// The line immediately before a record, when present and not itself a marker
// line, is taken as the satellite's display name.
//
// An orphaned "1" line with no matching "2" line is skipped with a warning
// and scanning resumes; a well-paired record whose body fails to decode
// aborts the whole parse. The two failure modes are deliberately asymmetric:
// a missing pair is feed texture, a rejected body means the feed is corrupt.
func Parse(r io.Reader, logger *slog.Logger) ([]ElementSet, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n\t ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading element-set data: %w", err)
	}

	var sets []ElementSet
	for i := 0; i < len(lines); {
		if !strings.HasPrefix(lines[i], "1") {
			i++
			continue
		}

		if i+1 >= len(lines) || !strings.HasPrefix(lines[i+1], "2") {
			logger.Warn("skipping element set with missing line 2", "line_index", i)
			metrics.IncParseSkips()
			i++
			continue
		}

		var name string
		if i >= 1 {
			prev := lines[i-1]
			if !strings.HasPrefix(prev, "1") && !strings.HasPrefix(prev, "2") {
				name = strings.TrimSpace(prev)
			}
		}

		set, err := decodeElementSet(name, lines[i], lines[i+1])
		if err != nil {
			return nil, fmt.Errorf("decoding element set at line %d: %w", i, err)
		}
		sets = append(sets, set)
		i += 2
	}

	return sets, nil
}

// decodeElementSet validates the structural format of a paired record and
// extracts the NORAD ID and epoch. Column positions follow the standard TLE
// layout: catalog number in line 1 cols 3-7, epoch in cols 19-32.
func decodeElementSet(name, line1, line2 string) (ElementSet, error) {
	if len(line1) != 69 {
		return ElementSet{}, fmt.Errorf("line 1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return ElementSet{}, fmt.Errorf("line 2 length %d, expected 69", len(line2))
	}

	noradStr := strings.TrimSpace(line1[2:7])
	noradID, err := strconv.Atoi(noradStr)
	if err != nil {
		return ElementSet{}, fmt.Errorf("invalid catalog number %q: %w", noradStr, err)
	}

	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return ElementSet{}, fmt.Errorf("invalid epoch: %w", err)
	}

	return ElementSet{
		NORADID: noradID,
		Name:    name,
		Epoch:   epoch,
		Line1:   line1,
		Line2:   line2,
	}, nil
}

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to time.Time.
// Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch day %q: %w", s[2:], err)
	}

	// dayOfYear is 1-based: day 1.0 = Jan 1 00:00 UTC.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}
