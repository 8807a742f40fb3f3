// Package exercise implements the per-exercise form rules and rep-counting
// state machines. Each variant consumes one landmark frame at a time and
// advances a Progress record.
package exercise

import (
	"errors"
	"strings"
	"time"

	"github.com/meltforce/formcoach/internal/pose"
)

// Stage is the current phase of a repetition cycle.
type Stage string

const (
	StageUp    Stage = "up"
	StageDown  Stage = "down"
	StageReady Stage = "ready"
)

// GoodForm is shown when a rep exercise reports no violations.
const GoodForm = "Good form!"

// ErrUnknownExercise is returned by frames processed for an exercise id with
// no registered rules.
var ErrUnknownExercise = errors.New("unknown exercise")

// Progress is the tracker state an exercise advances frame by frame.
type Progress struct {
	Counter  int      `json:"counter"`
	GoodReps int      `json:"good_reps"`
	Stage    Stage    `json:"stage"`
	Feedback []string `json:"feedback"`

	// StartTime is the session start; time-based exercises measure holds from it.
	StartTime time.Time `json:"start_time,omitzero"`
	// CreditedSecond is the last whole second credited as held with good form.
	CreditedSecond int `json:"credited_second,omitempty"`
}

// Input is one frame handed to an exercise.
type Input struct {
	Frame         pose.Frame
	Now           time.Time
	MinVisibility float64
}

// Exercise is a rep counter and form checker for one movement.
//
// Update must leave p untouched when it returns an error.
type Exercise interface {
	ID() string
	Name() string
	DefaultStage() Stage
	TimeBased() bool
	Update(in Input, p *Progress) error
}

var catalog = []Exercise{
	BicepCurl{},
	Squat{},
	PushUp{},
	Lunge{},
	Plank{},
}

var aliases = map[string]string{
	"curl":        "bicep_curl",
	"bicep_curls": "bicep_curl",
	"squat":       "squats",
	"pushup":      "pushups",
	"push_up":     "pushups",
	"push_ups":    "pushups",
	"lunge":       "lunges",
	"planks":      "plank",
}

// All returns the supported exercises in display order.
func All() []Exercise {
	out := make([]Exercise, len(catalog))
	copy(out, catalog)
	return out
}

// Info describes one supported exercise.
type Info struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TimeBased    bool   `json:"time_based"`
	DefaultStage Stage  `json:"default_stage"`
}

// Catalog lists the supported exercises in display order.
func Catalog() []Info {
	out := make([]Info, 0, len(catalog))
	for _, ex := range catalog {
		out = append(out, Info{
			ID:           ex.ID(),
			Name:         ex.Name(),
			TimeBased:    ex.TimeBased(),
			DefaultStage: ex.DefaultStage(),
		})
	}
	return out
}

// IDs returns the canonical exercise ids in display order.
func IDs() []string {
	ids := make([]string, len(catalog))
	for i, ex := range catalog {
		ids[i] = ex.ID()
	}
	return ids
}

// Lookup resolves an exercise id. Ids are matched case-insensitively and
// hyphens or spaces are treated as underscores.
func Lookup(id string) (Exercise, bool) {
	key := strings.ToLower(strings.TrimSpace(id))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	for _, ex := range catalog {
		if ex.ID() == key {
			return ex, true
		}
	}
	return nil, false
}

// Unknown returns a placeholder for an unregistered id. Every frame it sees
// fails with ErrUnknownExercise and changes nothing.
func Unknown(id string) Exercise {
	return unknown{id: id}
}

type unknown struct {
	id string
}

func (u unknown) ID() string                  { return u.id }
func (u unknown) Name() string                { return u.id }
func (unknown) DefaultStage() Stage           { return StageDown }
func (unknown) TimeBased() bool               { return false }
func (unknown) Update(Input, *Progress) error { return ErrUnknownExercise }

func orGoodForm(violations []string) []string {
	if len(violations) == 0 {
		return []string{GoodForm}
	}
	return violations
}
