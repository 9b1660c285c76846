// Package engine runs the weather steps against one parsed timetable.
//
// Steps run in a fixed order: acceleration, entry delay, dwell. A step is
// part of the pipeline only when its configuration would change something.
// The first failing step aborts the rest; the caller must then discard the
// document.
package engine

import (
	"github.com/beevik/etree"

	"zsw/internal/delay"
	"zsw/internal/document"
	"zsw/internal/dwell"
	"zsw/internal/failure"
	"zsw/internal/settings"
	"zsw/internal/traction"
)

// Step is one mutation applied to a train.
type Step interface {
	// Name returns the step's short identifier (e.g. "traction").
	Name() string

	// Op describes the step for error context chains.
	Op() string

	// Apply mutates train, drawing randomness from src if it needs any.
	Apply(train *etree.Element, src delay.Source) error
}

// Engine holds the configured pipeline.
type Engine struct {
	steps []Step
}

// New validates w and builds the pipeline it describes.
func New(w settings.Weather) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	var steps []Step
	if m := w.Multipliers(); w.Multiplier != nil || !m.Identity() {
		steps = append(steps, tractionStep{m: m})
	}
	if m := w.DelayModel(); m.Active() {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		steps = append(steps, delayStep{m: m})
	}
	if a := w.Dwell(); !a.Identity() {
		steps = append(steps, dwellStep{a: a})
	}
	return &Engine{steps: steps}, nil
}

// NewWithSteps builds an engine from explicit steps.
func NewWithSteps(steps ...Step) *Engine {
	return &Engine{steps: steps}
}

// Steps returns the names of the configured steps in run order.
func (e *Engine) Steps() []string {
	names := make([]string, len(e.steps))
	for i, s := range e.steps {
		names[i] = s.Name()
	}
	return names
}

// Empty reports whether no step is configured.
func (e *Engine) Empty() bool {
	return len(e.steps) == 0
}

// Mutate applies every step to doc in order.
func (e *Engine) Mutate(doc *etree.Document, src delay.Source) error {
	train, err := document.Train(doc)
	if err != nil {
		return err
	}
	for _, s := range e.steps {
		if err := s.Apply(train, src); err != nil {
			return failure.Wrap(err, s.Op())
		}
	}
	return nil
}

type tractionStep struct{ m traction.Multipliers }

func (tractionStep) Name() string { return "traction" }
func (tractionStep) Op() string   { return "applying multiplier" }

func (s tractionStep) Apply(train *etree.Element, _ delay.Source) error {
	return traction.Apply(train, s.m)
}

type delayStep struct{ m delay.Model }

func (delayStep) Name() string { return "delay" }
func (delayStep) Op() string   { return "delaying entry" }

func (s delayStep) Apply(train *etree.Element, src delay.Source) error {
	_, err := s.m.Delay(train, src)
	return err
}

type dwellStep struct{ a dwell.Adjuster }

func (dwellStep) Name() string { return "dwell" }
func (dwellStep) Op() string   { return "adjusting departures" }

func (s dwellStep) Apply(train *etree.Element, _ delay.Source) error {
	_, err := s.a.Apply(train)
	return err
}
