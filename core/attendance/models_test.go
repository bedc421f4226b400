package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo/core"
)

func TestSummarize(t *testing.T) {
	records := func(statuses ...Status) []Attendance {
		recs := make([]Attendance, 0, len(statuses))
		for _, s := range statuses {
			recs = append(recs, Attendance{Status: s})
		}
		return recs
	}

	tests := []struct {
		name    string
		records []Attendance
		want    Summary
	}{
		{"empty", nil, Summary{}},
		{
			"mixed",
			records(StatusPresent, StatusPresent, StatusLate, StatusAbsent),
			Summary{Total: 4, Present: 2, Late: 1, Absent: 1, Rate: 75},
		},
		{
			"excused counts as missed",
			records(StatusPresent, StatusExcused, StatusAbsent),
			Summary{Total: 3, Present: 1, Absent: 1, Excused: 1, Rate: 33.33},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Summarize(tc.records))
		})
	}
}

func TestQueryFilter_Conds(t *testing.T) {
	conds := QueryFilter{Student: "s1", Date: "2024-03-05", DateTo: "2024-03-31T10:00:00Z"}.Conds()
	if assert.Len(t, conds, 3) {
		assert.Equal(t, core.Eq("student", "s1"), conds[0])
		assert.Equal(t, core.Eq("date", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)), conds[1])
		assert.Equal(t, core.Lte("date", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)), conds[2])
	}
}
