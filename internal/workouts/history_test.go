package workouts_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymlog/internal/workouts"
)

func exercise(name, weight string) workouts.Exercise {
	return workouts.Exercise{
		Name:   name,
		Sets:   "3",
		Reps:   "10",
		Weight: workouts.Amount(weight),
	}
}

func dates(ws []workouts.Workout) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Date)
	}
	return out
}

func TestSortByDateDesc(t *testing.T) {
	ws := []workouts.Workout{
		{ID: 1, Date: "15/01/2024"},
		{ID: 2, Date: "01/03/2024"},
		{ID: 3, Date: "not a date"},
		{ID: 4, Date: "31/12/2023"},
		{ID: 5, Date: "02/03/2024"},
	}

	workouts.SortByDateDesc(ws)

	assert.Equal(t, []string{"02/03/2024", "01/03/2024", "15/01/2024", "31/12/2023", "not a date"}, dates(ws))
}

func TestSortByDateDesc_DayFirst(t *testing.T) {
	// read as MM/DD the order would flip
	ws := []workouts.Workout{
		{Date: "15/01/2024"},
		{Date: "01/03/2024"},
	}
	workouts.SortByDateDesc(ws)
	assert.Equal(t, "01/03/2024", ws[0].Date)
}

func TestSortByDateDesc_StableForSameDay(t *testing.T) {
	ws := []workouts.Workout{
		{ID: 10, Date: "01/01/2024"},
		{ID: 11, Date: "02/01/2024"},
		{ID: 12, Date: "1/1/2024"},
		{ID: 13, Date: "bad"},
		{ID: 14, Date: "also bad"},
	}
	workouts.SortByDateDesc(ws)

	ids := make([]int, 0, len(ws))
	for _, w := range ws {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []int{11, 10, 12, 13, 14}, ids)
}

func TestSortByDateDesc_Random(t *testing.T) {
	ws := make([]workouts.Workout, 0, 50)
	for i := 0; i < 50; i++ {
		d := gofakeit.DateRange(
			time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2030, time.December, 31, 0, 0, 0, 0, time.UTC),
		)
		ws = append(ws, workouts.Workout{ID: i, Date: d.Format(workouts.DateLayout)})
	}

	workouts.SortByDateDesc(ws)

	for i := 1; i < len(ws); i++ {
		prev, err := workouts.ParseDate(ws[i-1].Date)
		require.NoError(t, err)
		curr, err := workouts.ParseDate(ws[i].Date)
		require.NoError(t, err)
		assert.False(t, curr.After(prev), fmt.Sprintf("%s before %s", ws[i-1].Date, ws[i].Date))
	}
}

func TestRecentFrom_LatestOccurrenceWins(t *testing.T) {
	ws := []workouts.Workout{
		{Date: "12/01/2024", Exercises: []workouts.Exercise{exercise("Squat", "60")}},
		{Date: "10/01/2024", Exercises: []workouts.Exercise{exercise("Squat", "50"), exercise("Bench", "40")}},
	}

	recent := workouts.RecentFrom(ws, 5)

	require.Len(t, recent, 2)
	assert.Equal(t, "Squat", recent[0].Name)
	assert.Equal(t, workouts.Amount("60"), recent[0].Weight)
	assert.Equal(t, "Bench", recent[1].Name)
}

func TestRecentFrom_CaseInsensitive(t *testing.T) {
	ws := []workouts.Workout{
		{Exercises: []workouts.Exercise{exercise("squat", "70")}},
		{Exercises: []workouts.Exercise{exercise("SQUAT", "65"), exercise(" Squat ", "60")}},
	}

	recent := workouts.RecentFrom(ws, 5)

	require.Len(t, recent, 1)
	assert.Equal(t, "squat", recent[0].Name)
	assert.Equal(t, workouts.Amount("70"), recent[0].Weight)
}

func TestRecentFrom_Limit(t *testing.T) {
	var ex []workouts.Exercise
	for i := 0; i < 8; i++ {
		ex = append(ex, exercise(fmt.Sprintf("exercise-%d", i), "10"))
	}
	ws := []workouts.Workout{{Exercises: ex}}

	assert.Len(t, workouts.RecentFrom(ws, 5), 5)
	assert.Len(t, workouts.RecentFrom(ws, 0), workouts.DefaultRecentLimit)
	assert.Len(t, workouts.RecentFrom(ws, -1), workouts.DefaultRecentLimit)
	assert.Len(t, workouts.RecentFrom(ws, 3), 3)
	assert.Len(t, workouts.RecentFrom(ws, 20), 8)

	recent := workouts.RecentFrom(ws, 2)
	assert.Equal(t, "exercise-0", recent[0].Name)
	assert.Equal(t, "exercise-1", recent[1].Name)
}

func TestRecentFrom_Empty(t *testing.T) {
	recent := workouts.RecentFrom(nil, 5)
	assert.NotNil(t, recent)
	assert.Empty(t, recent)
}
