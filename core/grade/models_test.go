package grade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/storage/database/memdb"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		marks      float64
		total      float64
		wantPct    float64
		wantLetter string
	}{
		{"top band", 92, 100, 92, "A+"},
		{"band floor", 90, 100, 90, "A+"},
		{"A", 17, 20, 85, "A"},
		{"B+", 83, 100, 83, "B+"},
		{"B", 38, 50, 76, "B"},
		{"C+", 70, 100, 70, "C+"},
		{"C", 61, 100, 61, "C"},
		{"D", 5, 10, 50, "D"},
		{"F", 45, 100, 45, "F"},
		{"unrounded", 2, 3, 2.0 / 3.0 * 100, "C"},
		{"just below a band", 269, 300, 269.0 / 300.0 * 100, "A"},
		{"zero marks", 0, 40, 0, "F"},
		{"invalid total", 10, 0, 0, "F"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pct, letter := Compute(tc.marks, tc.total)
			assert.InDelta(t, tc.wantPct, pct, 1e-9)
			assert.Equal(t, tc.wantLetter, letter)
		})
	}
}

func TestService_UpdateRecomputes(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memdb.NewRepository[Grade](memdb.New(), Collection))

	g, err := svc.Create(ctx, NewGrade{Student: core.NewID(), Course: core.NewID(), ExamType: ExamQuiz, Marks: 40, TotalMarks: 50})
	require.NoError(t, err)
	assert.Equal(t, 80.0, g.Percentage)
	assert.Equal(t, "B+", g.Grade)

	marks := 49.0
	g, err = svc.Update(ctx, g, UpdateGrade{Marks: &marks})
	require.NoError(t, err)
	assert.Equal(t, 98.0, g.Percentage)
	assert.Equal(t, "A+", g.Grade)

	total := 60.0
	_, err = svc.Update(ctx, g, UpdateGrade{TotalMarks: &total})
	require.NoError(t, err)
	stored, err := svc.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.InDelta(t, 49.0/60.0*100, stored.Percentage, 1e-9)
	assert.Equal(t, "B+", stored.Grade)

	low := 10.0
	_, err = svc.Update(ctx, stored, UpdateGrade{TotalMarks: &low})
	assert.Equal(t, errMarksAboveTotal, err)
}
