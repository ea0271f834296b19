package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byID(ps []Positioned) map[string]Positioned {
	m := make(map[string]Positioned, len(ps))
	for _, p := range ps {
		m[p.SessionID] = p
	}
	return m
}

func TestLayoutDay_ThreeMutuallyOverlapping(t *testing.T) {
	sessions := []Session{
		{ID: "c", CourseID: "C", Start: "10:00", End: "12:00"},
		{ID: "a", CourseID: "A", Start: "09:00", End: "11:00"},
		{ID: "b", CourseID: "B", Start: "09:30", End: "11:30"},
	}
	got := byID(LayoutDay(sessions, DefaultWindow))

	require.Len(t, got, 3)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, 3, got[id].Columns)
		assert.InDelta(t, 33.333, got[id].WidthPct, 0.01)
	}
	assert.InDelta(t, 0, got["a"].LeftPct, 0.01)
	assert.InDelta(t, 33.333, got["b"].LeftPct, 0.01)
	assert.InDelta(t, 66.666, got["c"].LeftPct, 0.01)
}

func TestLayoutDay_TouchingShareOneColumn(t *testing.T) {
	sessions := []Session{
		{ID: "a", Start: "09:00", End: "10:00"},
		{ID: "b", Start: "10:00", End: "11:00"},
	}
	got := byID(LayoutDay(sessions, DefaultWindow))

	for _, id := range []string{"a", "b"} {
		assert.Equal(t, 0, got[id].Column)
		assert.Equal(t, 1, got[id].Columns)
		assert.InDelta(t, 100, got[id].WidthPct, 0.001)
		assert.InDelta(t, 0, got[id].LeftPct, 0.001)
	}
}

// A 与 C 不直接重叠，但经由 B 传递成为同一簇；C 复用 A 释放的列
func TestLayoutDay_TransitiveClusterReusesColumn(t *testing.T) {
	sessions := []Session{
		{ID: "a", Start: "09:00", End: "10:00"},
		{ID: "b", Start: "09:30", End: "11:00"},
		{ID: "c", Start: "10:30", End: "12:00"},
		{ID: "d", Start: "13:00", End: "14:00"},
	}
	got := byID(LayoutDay(sessions, DefaultWindow))

	assert.Equal(t, 2, got["a"].Columns)
	assert.Equal(t, 2, got["c"].Columns)
	assert.Equal(t, 0, got["a"].Column)
	assert.Equal(t, 1, got["b"].Column)
	assert.Equal(t, 0, got["c"].Column)
	assert.InDelta(t, 50, got["c"].WidthPct, 0.001)
	// 独立的簇不受影响
	assert.Equal(t, 1, got["d"].Columns)
	assert.InDelta(t, 100, got["d"].WidthPct, 0.001)
}

func TestLayoutDay_NoTwoOverlappingShareColumn(t *testing.T) {
	sessions := []Session{
		{ID: "1", Start: "08:00", End: "12:00"},
		{ID: "2", Start: "08:30", End: "09:00"},
		{ID: "3", Start: "09:00", End: "10:00"},
		{ID: "4", Start: "09:15", End: "11:00"},
		{ID: "5", Start: "10:00", End: "10:30"},
		{ID: "6", Start: "11:30", End: "13:00"},
	}
	layout := LayoutDay(sessions, DefaultWindow)
	pos := byID(layout)
	spans := map[string]span{}
	for _, s := range sessions {
		sp, ok := parseSpan(s)
		require.True(t, ok)
		spans[s.ID] = sp
	}
	for i, x := range sessions {
		for _, y := range sessions[i+1:] {
			a, b := spans[x.ID], spans[y.ID]
			if RangesOverlap(a.start, a.end, b.start, b.end) {
				assert.NotEqual(t, pos[x.ID].Column, pos[y.ID].Column, "%s/%s", x.ID, y.ID)
			}
		}
	}
	assert.Equal(t, 3, pos["1"].Columns)
}

func TestLayoutDay_VerticalPosition(t *testing.T) {
	sessions := []Session{
		{ID: "in", Start: "09:00", End: "10:30"},
		{ID: "before", Start: "06:00", End: "07:00"},
		{ID: "tail", Start: "19:00", End: "21:00"},
	}
	got := byID(LayoutDay(sessions, DefaultWindow))

	assert.InDelta(t, 60.0/720*100, got["in"].TopPct, 0.001)
	assert.InDelta(t, 90.0/720*100, got["in"].HeightPct, 0.001)
	assert.InDelta(t, 0, got["before"].TopPct, 0.001)
	assert.InDelta(t, 0, got["before"].HeightPct, 0.001)
	assert.InDelta(t, 660.0/720*100, got["tail"].TopPct, 0.001)
	assert.InDelta(t, 60.0/720*100, got["tail"].HeightPct, 0.001)
}

func TestLayoutDay_Empty(t *testing.T) {
	assert.Empty(t, LayoutDay(nil, DefaultWindow))
}

func TestBuildWeekGrid(t *testing.T) {
	sessions := []Session{
		{ID: "fri", Date: "2024-05-17", Start: "09:00", End: "10:00"},
		{ID: "sat1", Date: "2024-05-18", Start: "09:00", End: "11:00"},
		{ID: "sat2", Date: "2024-05-18", Start: "10:00", End: "12:00"},
		{ID: "next", Date: "2024-05-24", Start: "09:00", End: "10:00"},
	}
	weeks := WeeksFromSessions(sessions)
	require.Len(t, weeks, 2)

	grid := BuildWeekGrid(sessions, weeks[0], DefaultWindow)
	require.Len(t, grid.Columns, 3)
	assert.Equal(t, Fri, grid.Columns[0].Day)
	assert.Len(t, grid.Columns[0].Layout, 1)
	assert.Len(t, grid.Columns[1].Layout, 2)
	assert.Equal(t, 2, grid.Columns[1].Layout[0].Columns)
	assert.Empty(t, grid.Columns[2].Layout)
}

func TestBuildMatrix(t *testing.T) {
	red := "#ff0000"
	courses := map[string]Course{
		"A": {ID: "A", Name: "Statistika", Color: &red},
		"B": {ID: "B", Name: "Ekonomie"},
	}
	sessions := []Session{
		{ID: "a2", CourseID: "A", Date: "2024-05-17", Start: "13:00", End: "14:00"},
		{ID: "a1", CourseID: "A", Date: "2024-05-17", Start: "09:00", End: "10:00"},
		{ID: "b1", CourseID: "B", Date: "2024-05-26", Start: "09:00", End: "10:00"},
	}

	rows := BuildMatrix(sessions, courses, nil)
	require.Len(t, rows, 2)
	fri := rows[0].Days[Fri]
	require.Len(t, fri, 2)
	assert.Equal(t, "a1", fri[0].SessionID)
	assert.Equal(t, &red, fri[0].Color)
	assert.Len(t, rows[1].Days[Sun], 1)

	filtered := BuildMatrix(sessions, courses, []string{"Ekonomie"})
	require.Len(t, filtered, 2)
	assert.Empty(t, filtered[0].Days[Fri])
	assert.Len(t, filtered[1].Days[Sun], 1)
}

func TestCreditSummary(t *testing.T) {
	got := CreditSummary([]Course{
		{Name: "a", Credits: 5, Type: CourseTypeMandatory},
		{Name: "b", Credits: 3, Type: CourseTypeMO},
		{Name: "c", Credits: 2},
		{Name: "d", Credits: 0, Type: CourseTypeMandatory},
		{Name: "e", Credits: 4, Archived: true},
	})
	assert.Equal(t, Credits{Total: 10, Mandatory: 5, MO: 3, NoCategory: 2}, got)
}
