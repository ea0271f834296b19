package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeToMinutes(t *testing.T) {
	cases := map[string]int{
		"00:00": 0,
		"08:00": 480,
		"09:30": 570,
		"23:59": 1439,
	}
	for in, want := range cases {
		got, err := TimeToMinutes(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestTimeToMinutes_Malformed(t *testing.T) {
	for _, in := range []string{"", "9:30", "09-30", "24:00", "12:60", "ab:cd", "09:3x", "009:30"} {
		_, err := TimeToMinutes(in)
		assert.ErrorIs(t, err, ErrInvalidTime, in)
	}
}

func TestMinutesToTime(t *testing.T) {
	assert.Equal(t, "00:00", MinutesToTime(0))
	assert.Equal(t, "09:05", MinutesToTime(545))
	assert.Equal(t, "20:00", MinutesToTime(1200))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 480, Clamp(300, 480, 1200))
	assert.Equal(t, 1200, Clamp(1300, 480, 1200))
	assert.Equal(t, 600, Clamp(600, 480, 1200))
}

func TestRangesOverlap(t *testing.T) {
	cases := []struct {
		name           string
		aS, aE, bS, bE int
		want           bool
	}{
		{"partial", 540, 630, 600, 660, true},
		{"contained", 540, 720, 600, 660, true},
		{"identical", 540, 600, 540, 600, true},
		{"touching", 540, 600, 600, 660, false},
		{"disjoint", 540, 600, 700, 760, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RangesOverlap(tc.aS, tc.aE, tc.bS, tc.bE))
			// 对称性
			assert.Equal(t, tc.want, RangesOverlap(tc.bS, tc.bE, tc.aS, tc.aE))
		})
	}
}

func TestWindow(t *testing.T) {
	w := DefaultWindow
	assert.True(t, w.Valid())
	assert.Equal(t, 720, w.TotalMinutes())
	assert.True(t, w.Contains(480, 1200))
	assert.False(t, w.Contains(450, 600))
	assert.False(t, w.Contains(600, 1230))
	assert.False(t, Window{MinHour: 10, MaxHour: 10}.Valid())
}

func TestValidTimeRange(t *testing.T) {
	assert.NoError(t, ValidTimeRange("09:00", "10:30"))
	assert.ErrorIs(t, ValidTimeRange("10:00", "10:00"), ErrEndNotAfterStart)
	assert.ErrorIs(t, ValidTimeRange("11:00", "10:00"), ErrEndNotAfterStart)
	assert.ErrorIs(t, ValidTimeRange("9:00", "10:00"), ErrInvalidTime)
}
