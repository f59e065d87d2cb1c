package artifact

import (
	"errors"
	"testing"
	"time"

	masterminds "github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMajorOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref   string
		major int
		ok    bool
	}{
		{"v12.0.0-nightly20200115abc/", 12, true},
		{"v8.17.0-rc.1/", 8, true},
		{"../", 0, false},
		{"index.json", 0, false},
		{"12.0.0/", 0, false},
	}

	for _, tt := range tests {
		major, ok := MajorOf(tt.ref)
		assert.Equal(t, tt.ok, ok, tt.ref)
		assert.Equal(t, tt.major, major, tt.ref)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	res := Parse("v14.0.0-nightly20200301deadbeef/", RuleDate)
	require.True(t, res.OK())
	assert.Equal(t, 14, res.Record.Major)

	key, ok := res.Record.Key.(DateKey)
	require.True(t, ok)
	assert.Equal(t, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), key.Date)
	assert.Equal(t, "v14.0.0-nightly20200301deadbeef", res.Record.Version())
}

func TestParseDateRejected(t *testing.T) {
	t.Parallel()

	for _, ref := range []string{
		"v14.0.0-nightly/",
		"v14.0.0-nightly20201399abc/",
	} {
		res := Parse(ref, RuleDate)
		assert.False(t, res.OK(), ref)
		assert.True(t, errors.Is(res.Err, ErrMalformedEntry), ref)
	}
}

func TestParseRC(t *testing.T) {
	t.Parallel()

	res := Parse("v16.0.0-rc.3/", RuleRC)
	require.True(t, res.OK())

	key, ok := res.Record.Key.(RCKey)
	require.True(t, ok)
	assert.Equal(t, 3, key.RC)
	assert.Equal(t, "16.0.0-rc.3", key.Version.String())
}

func TestParseRCRejected(t *testing.T) {
	t.Parallel()

	res := Parse("v16.0.0/", RuleRC)
	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err, ErrMalformedEntry)
}

func TestCompareRC(t *testing.T) {
	t.Parallel()

	key := func(s string) RCKey {
		return RCKey{Version: masterminds.MustParse(s)}
	}

	assert.Equal(t, 1, CompareRC(key("9.0.0-rc.10"), key("9.0.0-rc.9")))
	assert.Equal(t, -1, CompareRC(key("9.0.0-rc.1"), key("9.0.0-rc.10")))
	assert.Equal(t, 1, CompareRC(key("10.0.0-rc.2"), key("9.9.9-rc.9")))
	assert.Equal(t, 0, CompareRC(key("9.0.0-rc.1"), key("9.0.0-rc.1")))
}

func TestCompareDate(t *testing.T) {
	t.Parallel()

	a := DateKey{Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := DateKey{Date: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, -1, CompareDate(a, b))
	assert.Equal(t, 1, CompareDate(b, a))
	assert.Equal(t, 0, CompareDate(a, a))
}

func TestCompareMixedPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		Compare(DateKey{}, RCKey{Version: masterminds.MustParse("1.0.0")})
	})
}

func TestSelectDate(t *testing.T) {
	t.Parallel()

	refs := []string{
		"../",
		"v12.0.0-nightly20200101aaa/",
		"v12.0.0-nightly20200115bbb/",
		"v11.0.0-nightly20200201ccc/",
	}

	sel := Select(refs, RuleDate, 0)
	assert.Equal(t, []int{11, 12}, sel.Majors())
	assert.Equal(t, "v12.0.0-nightly20200115bbb/", sel.Latest[12].Reference)
	assert.Equal(t, "v11.0.0-nightly20200201ccc/", sel.Latest[11].Reference)
}

func TestSelectRCUsesPrecedence(t *testing.T) {
	t.Parallel()

	sel := Select([]string{"v9.0.0-rc.10/", "v9.0.0-rc.1/", "v9.0.0-rc.9/"}, RuleRC, 0)
	assert.Equal(t, "v9.0.0-rc.10/", sel.Latest[9].Reference)
}

func TestSelectMinimumMajor(t *testing.T) {
	t.Parallel()

	refs := []string{
		"v9.0.0-nightly20991231aaa/",
		"v10.0.0-nightly20200101bbb/",
	}

	sel := Select(refs, RuleDate, 10)
	assert.Equal(t, []int{10}, sel.Majors())
	_, ok := sel.Latest[9]
	assert.False(t, ok)
}

func TestSelectMalformedExcluded(t *testing.T) {
	t.Parallel()

	refs := []string{
		"v13.0.0-nightly/",
		"v13.0.0-nightly20200401abc/",
		"v15.0.0-broken/",
	}

	sel := Select(refs, RuleDate, 0)
	assert.Equal(t, []int{13}, sel.Majors())
	assert.Equal(t, "v13.0.0-nightly20200401abc/", sel.Latest[13].Reference)
	assert.Len(t, sel.Rejected, 2)
}

func TestSelectEmpty(t *testing.T) {
	t.Parallel()

	sel := Select(nil, RuleDate, 0)
	assert.True(t, sel.Empty())
	assert.Empty(t, sel.Majors())

	_, ok := sel.Highest()
	assert.False(t, ok)
}

func TestSelectTieKeepsFirst(t *testing.T) {
	t.Parallel()

	refs := []string{
		"v12.0.0-nightly20200101aaa/",
		"v12.0.0-nightly20200101bbb/",
	}

	sel := Select(refs, RuleDate, 0)
	assert.Equal(t, "v12.0.0-nightly20200101aaa/", sel.Latest[12].Reference)
	assert.Equal(t, 0, sel.Latest[12].Index)
}

func TestSelectIdempotent(t *testing.T) {
	t.Parallel()

	refs := []string{
		"v12.0.0-nightly20200101aaa/",
		"v12.0.0-nightly20200115bbb/",
		"v14.0.0-nightly20200301ccc/",
	}

	assert.Equal(t, Select(refs, RuleDate, 0), Select(refs, RuleDate, 0))
}
