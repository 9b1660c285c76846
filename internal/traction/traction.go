// Package traction scales a train's acceleration capability (APBeschl) by
// the available rail friction.
//
// Locomotives and multiple units need different friction to reach their
// nominal acceleration, so each gets its own multiplier:
//
//	min(friction / needed, 1.0) × global
//
// The cap keeps good friction from ever boosting a train.
package traction

import (
	"math"
	"strconv"

	"github.com/beevik/etree"

	"zsw/internal/consist"
	"zsw/internal/document"
	"zsw/internal/failure"
)

// Multipliers holds the factor applied to APBeschl per consist class.
type Multipliers struct {
	Locomotive   float64
	MultipleUnit float64
}

// Compute derives the multipliers. global may be nil (treated as 1).
func Compute(friction, locNeeded, muNeeded float64, global *float64) Multipliers {
	g := 1.0
	if global != nil {
		g = *global
	}
	return Multipliers{
		Locomotive:   math.Min(friction/locNeeded, 1.0) * g,
		MultipleUnit: math.Min(friction/muNeeded, 1.0) * g,
	}
}

// Identity reports whether applying m would leave every train unchanged.
func (m Multipliers) Identity() bool {
	return m.Locomotive == 1 && m.MultipleUnit == 1
}

// For returns the multiplier for a consist class.
func (m Multipliers) For(locomotive bool) float64 {
	if locomotive {
		return m.Locomotive
	}
	return m.MultipleUnit
}

// Apply rewrites APBeschl on the Zug element train.
func Apply(train *etree.Element, m Multipliers) error {
	fv := train.SelectElement(document.TagConsist)
	if fv == nil {
		return failure.New(failure.MissingTag, document.TagConsist)
	}
	loco, err := consist.HasLocomotive(fv)
	if err != nil {
		return failure.Wrap(err, "classifying consist")
	}

	attr, err := document.Attr(train, document.AttrAccel)
	if err != nil {
		return err
	}
	old, err := strconv.ParseFloat(attr.Value, 64)
	if err != nil {
		return failure.Wrap(failure.From(failure.ParseError, attr.Value, err), "parsing "+document.AttrAccel)
	}

	attr.Value = Format(m.For(loco) * old)
	return nil
}

// Format renders v so that strconv.ParseFloat yields v again.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
