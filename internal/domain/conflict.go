package domain

import "time"

// ConflictWindow is the fixed scheduling buffer applied around a
// candidate start time. It is deliberately independent of the job's own
// estimated duration; see ConflictsWith.
const ConflictWindow = 4 * time.Hour

// ActiveStatuses are the statuses that occupy calendar time for
// conflict detection.
var ActiveStatuses = []JobStatus{StatusScheduled, StatusConfirmed, StatusInProgress}

// ConflictsWith reports whether two start times fall inside each
// other's conflict window: the gap between them is strictly less than
// four hours in either direction. The bound is exclusive, so a job
// beginning exactly four hours before or after another does not
// conflict.
func ConflictsWith(start, candidate time.Time) bool {
	gap := candidate.Sub(start)
	if gap < 0 {
		gap = -gap
	}
	return gap < ConflictWindow
}

// FindConflicts filters jobs down to those whose scheduled date lies
// within the conflict window of start, skipping excludeJobID (used
// during reschedule so a job does not conflict with itself). Callers
// are expected to pass only active-status jobs; inactive ones are
// ignored here as well.
func FindConflicts(jobs []Job, start time.Time, excludeJobID string) []Job {
	var conflicts []Job
	for _, j := range jobs {
		if j.ID == excludeJobID {
			continue
		}
		if !isActive(j.Status) {
			continue
		}
		if ConflictsWith(start, j.ScheduledDate) {
			conflicts = append(conflicts, j)
		}
	}
	return conflicts
}

func isActive(s JobStatus) bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}
