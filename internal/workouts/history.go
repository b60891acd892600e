package workouts

import (
	"sort"
	"strings"
	"time"
)

const DefaultRecentLimit = 5

// SortByDateDesc orders workouts newest date first. Dates are read as
// DD/MM/YYYY; rows with a date that does not parse (old imports) go last,
// keeping their relative order.
func SortByDateDesc(workouts []Workout) {
	type keyed struct {
		workout Workout
		day     time.Time
		valid   bool
	}
	sorted := make([]keyed, len(workouts))
	for i, w := range workouts {
		day, err := ParseDate(w.Date)
		sorted[i] = keyed{workout: w, day: day, valid: err == nil}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].valid != sorted[j].valid {
			return sorted[i].valid
		}
		return sorted[i].day.After(sorted[j].day)
	})

	for i := range sorted {
		workouts[i] = sorted[i].workout
	}
}

// RecentFrom walks workouts already sorted newest first and returns the
// latest occurrence of each exercise name, compared case-insensitively, up to
// limit entries, in discovery order.
func RecentFrom(workouts []Workout, limit int) []Exercise {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	seen := make(map[string]struct{})
	recent := make([]Exercise, 0, limit)
	for _, w := range workouts {
		for _, e := range w.Exercises {
			key := strings.ToLower(strings.TrimSpace(e.Name))
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			recent = append(recent, e)
			if len(recent) == limit {
				return recent
			}
		}
	}

	return recent
}
