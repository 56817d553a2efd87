package walltime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FourFieldForm(t *testing.T) {
	wt, err := Parse("01:02:03:04")
	require.NoError(t, err)
	assert.Equal(t, WallTime{Days: 1, Hours: 2, Minutes: 3, Seconds: 4}, wt)
}

func TestParse_ThreeFieldFormOmitsDays(t *testing.T) {
	wt, err := Parse("02:03:04")
	require.NoError(t, err)
	assert.Equal(t, WallTime{Days: 0, Hours: 2, Minutes: 3, Seconds: 4}, wt)
}

func TestParse_HoursOutOfRange(t *testing.T) {
	_, err := Parse("00:24:00:00")
	assert.Error(t, err)
}

func TestParse_MinutesOutOfRange(t *testing.T) {
	_, err := Parse("00:00:60:00")
	assert.Error(t, err)
}

func TestParse_SecondsOutOfRange(t *testing.T) {
	_, err := Parse("00:00:00:60")
	assert.Error(t, err)
}

func TestParse_DaysHaveNoUpperBound(t *testing.T) {
	wt, err := Parse("9999:00:00:00")
	require.NoError(t, err)
	assert.Equal(t, 9999, wt.Days)
}

func TestParse_WrongFieldCountIsRejected(t *testing.T) {
	_, err := Parse("00:00")
	assert.Error(t, err)
}

func TestParse_NonNumericFieldIsRejected(t *testing.T) {
	_, err := Parse("00:aa:00:00")
	assert.Error(t, err)
}

func TestSeconds_ComputesTotal(t *testing.T) {
	wt := WallTime{Days: 1, Hours: 1, Minutes: 1, Seconds: 1}
	assert.Equal(t, 24*3600+3600+60+1, wt.TotalSeconds())
}

func TestDuration_MatchesSeconds(t *testing.T) {
	wt := WallTime{Minutes: 2}
	assert.Equal(t, 120e9, float64(wt.Duration()))
}

func TestString_ZeroPadsEachField(t *testing.T) {
	wt := WallTime{Days: 1, Hours: 2, Minutes: 3, Seconds: 4}
	assert.Equal(t, "01:02:03:04", wt.String())
}

func TestFromSeconds_RoundTripsWithString(t *testing.T) {
	wt := FromSeconds(90061)
	assert.Equal(t, WallTime{Days: 1, Hours: 1, Minutes: 1, Seconds: 1}, wt)
	assert.Equal(t, "01:01:01:01", wt.String())
}

func TestFromSeconds_Zero(t *testing.T) {
	assert.Equal(t, WallTime{}, FromSeconds(0))
}
