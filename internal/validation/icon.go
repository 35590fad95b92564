package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/julianstephens/journalbot/internal/constants"
)

// Range is an inclusive span of code points.
type Range struct {
	Lo rune
	Hi rune
}

// IconRanges is the set of code points accepted as a page icon.
type IconRanges []Range

// ParseIconRanges parses a comma-separated list of hexadecimal code points
// or LOW-HIGH spans, e.g. "1F600-1F64F,2702-27B0,24C2".
func ParseIconRanges(spec string) (IconRanges, error) {
	var ranges IconRanges
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isSpan := strings.Cut(part, "-")
		loVal, err := parseCodePoint(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid icon range %q: %w", part, err)
		}
		hiVal := loVal
		if isSpan {
			hiVal, err = parseCodePoint(hi)
			if err != nil {
				return nil, fmt.Errorf("invalid icon range %q: %w", part, err)
			}
		}
		if hiVal < loVal {
			return nil, fmt.Errorf("invalid icon range %q: end before start", part)
		}
		ranges = append(ranges, Range{Lo: loVal, Hi: hiVal})
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("icon ranges cannot be empty")
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Lo < ranges[j].Lo })
	return ranges, nil
}

func parseCodePoint(s string) (rune, error) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "U+")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	if v > utf8.MaxRune {
		return 0, fmt.Errorf("code point %X beyond unicode range", v)
	}
	return rune(v), nil
}

// DefaultIconRanges returns the built-in icon ranges.
func DefaultIconRanges() IconRanges {
	ranges, err := ParseIconRanges(constants.DefaultIconRanges)
	if err != nil {
		panic(fmt.Sprintf("default icon ranges: %v", err))
	}
	return ranges
}

// Contains reports whether c falls inside any range.
func (r IconRanges) Contains(c rune) bool {
	for _, rng := range r {
		if c >= rng.Lo && c <= rng.Hi {
			return true
		}
	}
	return false
}

// IsValidIcon reports whether s is exactly one code point drawn from the
// ranges. Multi-rune input (including emoji with variation selectors or
// joiners) is not an icon.
func (r IconRanges) IsValidIcon(s string) bool {
	if !utf8.ValidString(s) || utf8.RuneCountInString(s) != 1 {
		return false
	}
	c, _ := utf8.DecodeRuneInString(s)
	return r.Contains(c)
}

// String renders the ranges in the form ParseIconRanges accepts.
func (r IconRanges) String() string {
	parts := make([]string, len(r))
	for i, rng := range r {
		if rng.Lo == rng.Hi {
			parts[i] = fmt.Sprintf("%X", rng.Lo)
		} else {
			parts[i] = fmt.Sprintf("%X-%X", rng.Lo, rng.Hi)
		}
	}
	return strings.Join(parts, ",")
}
