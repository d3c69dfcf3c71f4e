package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConflictsWith(t *testing.T) {
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		candidate time.Time
		conflict  bool
	}{
		{
			name:      "identical start time",
			candidate: start,
			conflict:  true,
		},
		{
			name:      "two hours after",
			candidate: start.Add(2 * time.Hour),
			conflict:  true,
		},
		{
			name:      "two hours before",
			candidate: start.Add(-2 * time.Hour),
			conflict:  true,
		},
		{
			name:      "one nanosecond under four hours after",
			candidate: start.Add(4*time.Hour - time.Nanosecond),
			conflict:  true,
		},
		{
			name:      "one nanosecond under four hours before",
			candidate: start.Add(-(4*time.Hour - time.Nanosecond)),
			conflict:  true,
		},
		{
			name:      "exactly four hours after",
			candidate: start.Add(4 * time.Hour),
			conflict:  false,
		},
		{
			name:      "exactly four hours before",
			candidate: start.Add(-4 * time.Hour),
			conflict:  false,
		},
		{
			name:      "well past the window",
			candidate: start.Add(5 * time.Hour),
			conflict:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.conflict, ConflictsWith(start, tt.candidate))
		})
	}
}

func TestFindConflicts(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	existing := []Job{
		{ID: "job-10", Status: StatusScheduled, ScheduledDate: day.Add(10 * time.Hour)},
		{ID: "job-12", Status: StatusConfirmed, ScheduledDate: day.Add(12 * time.Hour)},
		{ID: "job-15", Status: StatusScheduled, ScheduledDate: day.Add(15 * time.Hour)},
	}

	t.Run("candidate between two existing jobs conflicts with both", func(t *testing.T) {
		// 11:00 is within four hours of the 10:00 and the 12:00 job.
		conflicts := FindConflicts(existing, day.Add(11*time.Hour), "")
		assert.Len(t, conflicts, 2)
		assert.Equal(t, "job-10", conflicts[0].ID)
		assert.Equal(t, "job-12", conflicts[1].ID)
	})

	t.Run("edge-adjacent booking does not conflict", func(t *testing.T) {
		// 19:00 is exactly four hours after the 15:00 job.
		conflicts := FindConflicts(existing, day.Add(19*time.Hour), "")
		assert.Empty(t, conflicts)
	})

	t.Run("exact overlap conflicts", func(t *testing.T) {
		conflicts := FindConflicts(existing, day.Add(12*time.Hour), "")
		assert.Len(t, conflicts, 3)
	})

	t.Run("excluded job is skipped", func(t *testing.T) {
		conflicts := FindConflicts(existing, day.Add(12*time.Hour), "job-12")
		assert.Len(t, conflicts, 2)
	})

	t.Run("booking after an active morning job", func(t *testing.T) {
		// One active job at 10:00: a 12:00 booking conflicts, a 15:00
		// booking goes through.
		morning := []Job{
			{ID: "job-10", Status: StatusScheduled, ScheduledDate: day.Add(10 * time.Hour)},
		}

		conflicts := FindConflicts(morning, day.Add(12*time.Hour), "")
		assert.Len(t, conflicts, 1)
		assert.Equal(t, "job-10", conflicts[0].ID)

		assert.Empty(t, FindConflicts(morning, day.Add(15*time.Hour), ""))
	})

	t.Run("terminal statuses do not occupy calendar time", func(t *testing.T) {
		jobs := []Job{
			{ID: "done", Status: StatusCompleted, ScheduledDate: day.Add(10 * time.Hour)},
			{ID: "gone", Status: StatusCancelled, ScheduledDate: day.Add(10 * time.Hour)},
			{ID: "moved", Status: StatusRescheduled, ScheduledDate: day.Add(10 * time.Hour)},
		}
		conflicts := FindConflicts(jobs, day.Add(10*time.Hour), "")
		assert.Empty(t, conflicts)
	})
}
