package rangeserve

import (
	"errors"
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	cases := []struct {
		raw  string
		want Candidate
	}{
		{"bytes=0-", Candidate{Start: 0, OpenEnded: true}},
		{"bytes=32344-", Candidate{Start: 32344, OpenEnded: true}},
		{"bytes=32555-33980", Candidate{Start: 32555, End: 33980}},
		{"bytes=5-5", Candidate{Start: 5, End: 5}},
		{"  bytes= 10 - 20 ", Candidate{Start: 10, End: 20}},
		// only first spec of a multi-range is honored
		{"bytes=0-100,200-300", Candidate{Start: 0, End: 100}},
		{"bytes=7-,200-300", Candidate{Start: 7, OpenEnded: true}},
		{"Bytes=3-4", Candidate{Start: 3, End: 4}},
		{"BYTES=9-", Candidate{Start: 9, OpenEnded: true}},
		// offsets past int64 saturate
		{"bytes=99999999999999999999-", Candidate{Start: math.MaxInt64, OpenEnded: true}},
		{"bytes=10-99999999999999999999", Candidate{Start: 10, End: math.MaxInt64}},
	}
	for _, c := range cases {
		got, err := ParseRange(c.raw)
		require.Nil(t, err, c.raw)
		require.Equal(t, c.want, got, c.raw)
	}
}

func TestParseRangeMalformed(t *testing.T) {
	for _, raw := range []string{
		"0-100",
		"items=0-100",
		"bytes=",
		"bytes=abc-",
		"bytes=-500",
		"bytes=+5-",
		"bytes=-5-10",
		"bytes=10",
		"bytes=10-5",
		"bytes=1-x",
		"byte=1-2",
		"bytes",
		"bytes=99999999999999999999-5",
	} {
		_, err := ParseRange(raw)
		require.True(t, errors.Is(err, ErrMalformedRange), "%q: %v", raw, err)
		require.Equal(t, http.StatusBadRequest, StatusCode(err))
	}
}

func TestRangeRequestMissing(t *testing.T) {
	for _, h := range []http.Header{{}, {"Range": []string{"  "}}} {
		rr := RangeRequestFrom(h)
		require.False(t, rr.Present)
		_, err := rr.Parse()
		require.True(t, errors.Is(err, ErrMissingRange))
		require.Equal(t, http.StatusBadRequest, StatusCode(err))
	}

	rr := RangeRequestFrom(http.Header{"Range": []string{"bytes=1-2"}})
	require.True(t, rr.Present)
	c, err := rr.Parse()
	require.Nil(t, err)
	require.Equal(t, Candidate{Start: 1, End: 2}, c)
}

func TestParseRangeHugeOffsets(t *testing.T) {
	policy := DefaultChunkPolicy()

	c, err := ParseRange("bytes=99999999999999999999-")
	require.Nil(t, err)
	_, err = Resolve(c, 500_000, policy)
	require.True(t, errors.Is(err, ErrRangeNotSatisfiable))
	require.Equal(t, http.StatusRequestedRangeNotSatisfiable, StatusCode(err))

	c, err = ParseRange("bytes=10-99999999999999999999")
	require.Nil(t, err)
	win, err := Resolve(c, 500_000, policy)
	require.Nil(t, err)
	require.Equal(t, "bytes 10-499999/500000", win.ContentRange())
}
