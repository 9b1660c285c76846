// Package delay samples an entry delay for a train and shifts the arrival
// at its first timetable entry.
//
// Two independent sources contribute, each only when configured:
//
//	burst    with probability p: amplitude × (exp(lambda × r) − 1), r ∈ [0,1)
//	ambient  normal(mean, deviation)
//
// Magnitudes are in minutes and summed. With DenyEarly the sum is floored
// at zero. The sum is converted to whole seconds, truncating.
package delay

import (
	"math"

	"github.com/beevik/etree"

	"zsw/internal/document"
	"zsw/internal/failure"
	"zsw/internal/stamp"
)

// Source supplies random draws. *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
	NormFloat64() float64
}

// Burst is the rare-but-large disruption source.
type Burst struct {
	Probability float64
	Amplitude   float64
	Lambda      float64
}

// Ambient is the always-on normally distributed source.
type Ambient struct {
	Mean      float64
	Deviation float64
}

// Model combines the configured sources. A nil source is inactive.
type Model struct {
	Burst     *Burst
	Ambient   *Ambient
	DenyEarly bool
}

// maxSeconds bounds a sampled delay; anything larger cannot land inside
// the representable date range anyway.
const maxSeconds = 1 << 40

// Active reports whether any source is configured.
func (m Model) Active() bool {
	return m.Burst != nil || m.Ambient != nil
}

// Validate checks the distribution parameters.
func (m Model) Validate() error {
	if m.Ambient != nil && !(m.Ambient.Deviation > 0) {
		return failure.Newf(failure.InvalidDistributionParameters, "ambient deviation",
			"standard deviation must be positive, got %v", m.Ambient.Deviation)
	}
	return nil
}

// Minutes draws one delay in minutes. Draw order is fixed: the burst coin,
// the burst magnitude if triggered, then the ambient sample.
func (m Model) Minutes(src Source) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	var total float64
	if b := m.Burst; b != nil {
		if src.Float64() < b.Probability {
			total += b.Amplitude * (math.Exp(b.Lambda*src.Float64()) - 1)
		}
	}
	if a := m.Ambient; a != nil {
		total += a.Mean + a.Deviation*src.NormFloat64()
	}
	if m.DenyEarly && total < 0 {
		total = 0
	}
	return total, nil
}

// Seconds draws one delay and converts it to whole seconds.
func (m Model) Seconds(src Source) (int64, error) {
	minutes, err := m.Minutes(src)
	if err != nil {
		return 0, err
	}
	secs := minutes * 60
	if math.IsNaN(secs) || math.Abs(secs) > maxSeconds {
		return 0, failure.Newf(failure.Overflow, "delay", "sampled delay of %v minutes out of range", minutes)
	}
	return int64(secs), nil
}

// Delay samples a delay and applies it to train. It returns the applied
// number of seconds; zero means nothing was touched.
func (m Model) Delay(train *etree.Element, src Source) (int64, error) {
	secs, err := m.Seconds(src)
	if err != nil {
		return 0, failure.Wrap(err, "sampling delay")
	}
	if secs == 0 {
		return 0, nil
	}
	if err := Apply(train, secs); err != nil {
		return 0, err
	}
	return secs, nil
}

// Apply shifts the Ank of the first FahrplanEintrag carrying one by secs.
// Entries are taken in document order.
func Apply(train *etree.Element, secs int64) error {
	entries := train.SelectElements(document.TagEntry)
	if len(entries) == 0 {
		return failure.New(failure.MissingEntry, document.TagEntry)
	}
	for _, e := range entries {
		ank := e.SelectAttr(document.AttrArrival)
		if ank == nil {
			continue
		}
		st, err := stamp.Parse(ank.Value)
		if err != nil {
			return failure.Wrap(err, "parsing "+document.AttrArrival)
		}
		st, err = st.AddSeconds(secs)
		if err != nil {
			return failure.Wrapf(err, "shifting %s by %ds", document.AttrArrival, secs)
		}
		ank.Value = st.String()
		return nil
	}
	return failure.Wrap(failure.New(failure.MissingAttribute, document.AttrArrival), "locating entry arrival")
}
