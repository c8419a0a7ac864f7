package rangeserve

import (
	"errors"
	"math"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
)

const (
	HeaderRange = "Range"

	unitPrefix = "bytes="
)

// RangeRequest is the raw Range header of one request
type RangeRequest struct {
	Raw     string
	Present bool
}

// RangeRequestFrom reads the Range header, an empty value counts as absent
func RangeRequestFrom(h http.Header) RangeRequest {
	raw := textproto.TrimString(h.Get(HeaderRange))
	return RangeRequest{Raw: raw, Present: raw != ""}
}

// Candidate is a parsed but unresolved range.
// End is meaningless when OpenEnded is set.
type Candidate struct {
	Start     int64
	End       int64
	OpenEnded bool
}

// Parse parses the request header, see ParseRange
func (r RangeRequest) Parse() (Candidate, error) {
	if !r.Present {
		return Candidate{}, ErrMissingRange
	}
	return ParseRange(r.Raw)
}

// ParseRange parses `bytes=<start>-` and `bytes=<start>-<end>`.
// The unit is matched case-insensitively.
// Only the first spec of a multi-range value is honored, suffix ranges are rejected.
func ParseRange(raw string) (Candidate, error) {
	s := textproto.TrimString(raw)
	if s == "" {
		return Candidate{}, ErrMissingRange
	}
	if len(s) < len(unitPrefix) || !strings.EqualFold(s[:len(unitPrefix)], unitPrefix) {
		return Candidate{}, malformed(raw, "unit must be bytes")
	}
	s = s[len(unitPrefix):]
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}

	i := strings.IndexByte(s, '-')
	if i < 0 {
		return Candidate{}, malformed(raw, "missing '-'")
	}
	startStr, endStr := textproto.TrimString(s[:i]), textproto.TrimString(s[i+1:])
	if startStr == "" {
		return Candidate{}, malformed(raw, "start offset required")
	}

	start, err := parseOffset(startStr)
	if err != nil {
		return Candidate{}, malformed(raw, "invalid start offset")
	}
	if endStr == "" {
		return Candidate{Start: start, OpenEnded: true}, nil
	}

	end, err := parseOffset(endStr)
	if err != nil {
		return Candidate{}, malformed(raw, "invalid end offset")
	}
	if end < start {
		return Candidate{}, malformed(raw, "end before start")
	}
	return Candidate{Start: start, End: end}, nil
}

// parseOffset accepts plain decimal digits only, no sign.
// Offsets beyond int64 saturate, they lie past the end of any file.
func parseOffset(s string) (int64, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt64, nil
	}
	return n, err
}
