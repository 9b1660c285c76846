// Package dwell stretches the time trains wait at their stops.
package dwell

import (
	"math"

	"github.com/beevik/etree"

	"zsw/internal/document"
	"zsw/internal/failure"
	"zsw/internal/stamp"
)

// Adjuster inflates dwell times by Factor, capped at MaxSeconds.
type Adjuster struct {
	Factor     float64
	MaxSeconds int64
}

// Identity reports whether the adjuster would change nothing.
func (a Adjuster) Identity() bool {
	return a.Factor == 1
}

// Extra returns the seconds added to a departure whose original wait was
// wait seconds: min(wait × Factor, MaxSeconds), truncated.
func (a Adjuster) Extra(wait int64) int64 {
	scaled := float64(wait) * a.Factor
	if scaled >= float64(a.MaxSeconds) {
		return a.MaxSeconds
	}
	if math.IsNaN(scaled) {
		return 0
	}
	return int64(scaled)
}

// Apply adjusts Abf on every FahrplanEintrag of train that has both Ank
// and Abf. The extra wait is added to the original departure. It returns
// the number of entries changed.
func (a Adjuster) Apply(train *etree.Element) (int, error) {
	changed := 0
	for i, e := range train.SelectElements(document.TagEntry) {
		ank := e.SelectAttr(document.AttrArrival)
		abf := e.SelectAttr(document.AttrDepart)
		if ank == nil || abf == nil {
			continue
		}
		next, err := a.adjust(ank.Value, abf.Value)
		if err != nil {
			return changed, failure.Wrapf(err, "adjusting %s #%d", document.TagEntry, i+1)
		}
		abf.Value = next
		changed++
	}
	return changed, nil
}

func (a Adjuster) adjust(ankValue, abfValue string) (string, error) {
	ank, err := stamp.Parse(ankValue)
	if err != nil {
		return "", failure.Wrap(err, "parsing "+document.AttrArrival)
	}
	abf, err := stamp.Parse(abfValue)
	if err != nil {
		return "", failure.Wrap(err, "parsing "+document.AttrDepart)
	}
	out, err := abf.AddSeconds(a.Extra(abf.Sub(ank)))
	if err != nil {
		return "", failure.Wrap(err, "shifting "+document.AttrDepart)
	}
	return out.String(), nil
}
