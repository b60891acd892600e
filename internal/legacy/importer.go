// Package legacy moves data from the json files of the file backed storage
// (data/workouts.json, data/templates.json) into postgres.
package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/2beens/gymlog/internal/templates"
	"github.com/2beens/gymlog/internal/workouts"
)

const (
	WorkoutsFile  = "workouts.json"
	TemplatesFile = "templates.json"
)

type workoutRecord struct {
	Date      string           `json:"date"`
	Exercises []exerciseRecord `json:"exercises"`
}

type exerciseRecord struct {
	Name   string          `json:"name"`
	Sets   workouts.Amount `json:"sets"`
	Reps   workouts.Amount `json:"reps"`
	Weight workouts.Amount `json:"weight"`
}

func (e exerciseRecord) complete() bool {
	return strings.TrimSpace(e.Name) != "" && !e.Sets.IsEmpty() && !e.Reps.IsEmpty() && !e.Weight.IsEmpty()
}

type workoutSaver interface {
	SaveWorkout(ctx context.Context, owner workouts.Owner, date string, exercises []workouts.Exercise) (int, error)
}

type templateCreator interface {
	Create(ctx context.Context, owner workouts.Owner, req templates.SaveTemplateRequest) (*templates.Template, error)
}

type Summary struct {
	Workouts  int
	Exercises int
	Templates int
	Skipped   int
}

type Importer struct {
	workouts  workoutSaver
	templates templateCreator
}

func NewImporter(workoutSaver workoutSaver, templateCreator templateCreator) *Importer {
	return &Importer{
		workouts:  workoutSaver,
		templates: templateCreator,
	}
}

// ImportDir imports both legacy files found in dir. A missing file is skipped.
// A failure in one file does not stop the other, errors are combined.
func (i *Importer) ImportDir(ctx context.Context, dir string, owner workouts.Owner) (Summary, error) {
	var summary Summary

	workoutsErr := importFile(filepath.Join(dir, WorkoutsFile), func(r io.Reader) error {
		s, err := i.ImportWorkouts(ctx, r, owner)
		summary.Workouts, summary.Exercises = s.Workouts, s.Exercises
		summary.Skipped += s.Skipped
		return err
	})

	templatesErr := importFile(filepath.Join(dir, TemplatesFile), func(r io.Reader) error {
		s, err := i.ImportTemplates(ctx, r, owner)
		summary.Templates = s.Templates
		summary.Skipped += s.Skipped
		return err
	})

	return summary, multierr.Combine(workoutsErr, templatesErr)
}

func importFile(path string, importFunc func(r io.Reader) error) (err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Infof("no %s found, skipping", path)
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	if err := importFunc(f); err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	return nil
}

// ImportWorkouts reads a json array of {date, exercises} and appends every
// workout to owner's workout of that date. Incomplete exercises are skipped.
// Valid dates are stored zero padded, anything else verbatim.
func (i *Importer) ImportWorkouts(ctx context.Context, r io.Reader, owner workouts.Owner) (Summary, error) {
	var records []workoutRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return Summary{}, fmt.Errorf("decode workouts: %w", err)
	}

	log.Infof("found %d workouts to import", len(records))

	var summary Summary
	for idx, rec := range records {
		date := strings.TrimSpace(rec.Date)
		if date == "" {
			log.Warnf("workout %d has no date, skipping", idx)
			summary.Skipped++
			continue
		}
		if normalized, err := workouts.NormalizeDate(date); err == nil {
			date = normalized
		} else {
			log.Warnf("workout %d: keeping unparseable date %q", idx, date)
		}

		exercises := make([]workouts.Exercise, 0, len(rec.Exercises))
		for exIdx, e := range rec.Exercises {
			if !e.complete() {
				log.Warnf("workout %d (%s): exercise %d is incomplete, skipping", idx, date, exIdx)
				summary.Skipped++
				continue
			}
			exercises = append(exercises, workouts.Exercise{
				Name:   strings.TrimSpace(e.Name),
				Sets:   e.Sets,
				Reps:   e.Reps,
				Weight: e.Weight,
			})
		}

		if _, err := i.workouts.SaveWorkout(ctx, owner, date, exercises); err != nil {
			return summary, fmt.Errorf("save workout %d (%s): %w", idx, date, err)
		}
		summary.Workouts++
		summary.Exercises += len(exercises)
	}

	return summary, nil
}

// ImportTemplates reads a json array of exercises. The legacy ids are dropped,
// every template gets a new one.
func (i *Importer) ImportTemplates(ctx context.Context, r io.Reader, owner workouts.Owner) (Summary, error) {
	var records []exerciseRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return Summary{}, fmt.Errorf("decode templates: %w", err)
	}

	log.Infof("found %d templates to import", len(records))

	var summary Summary
	for idx, rec := range records {
		if !rec.complete() {
			log.Warnf("template %d is incomplete, skipping", idx)
			summary.Skipped++
			continue
		}
		if _, err := i.templates.Create(ctx, owner, templates.SaveTemplateRequest{
			Name:   strings.TrimSpace(rec.Name),
			Sets:   rec.Sets,
			Reps:   rec.Reps,
			Weight: rec.Weight,
		}); err != nil {
			return summary, fmt.Errorf("save template %d: %w", idx, err)
		}
		summary.Templates++
	}

	return summary, nil
}
