package settings

// settings.go: zsw weather configuration.
//
// A Weather value is built in layers: Default(), then an optional YAML file
// or named preset, then command-line flags. Optional knobs are pointers so
// that "not configured" stays distinct from zero; the engine decides which
// steps run from their presence.

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"zsw/internal/delay"
	"zsw/internal/dwell"
	"zsw/internal/traction"
)

// Weather holds every value the mutation engine consumes.
type Weather struct {
	// Multiplier scales APBeschl on top of the friction model.
	Multiplier *float64 `yaml:"multiplier,omitempty"`
	Friction   float64  `yaml:"friction"`
	LocNeeded  float64  `yaml:"loc_needed_friction"`
	MUNeeded   float64  `yaml:"mu_needed_friction"`

	DelayProbability *float64 `yaml:"delay_probability,omitempty"`
	DelayAmplitude   float64  `yaml:"delay_amplitude"`
	DelayLambda      float64  `yaml:"delay_lambda"`
	AmbientMean      *float64 `yaml:"ambient_mean,omitempty"`
	AmbientDeviation float64  `yaml:"ambient_deviation"`
	DenyEarly        bool     `yaml:"deny_early"`

	DeparturesFactor   float64 `yaml:"departures_delay_factor"`
	DeparturesMaxDelay float64 `yaml:"departures_max_delay"` // minutes

	Seed      *uint64 `yaml:"seed,omitempty"`
	Extension string  `yaml:"extension"`
	Jobs      int     `yaml:"jobs"`
}

// Default returns the documented defaults.
func Default() Weather {
	return Weather{
		Friction:           0.4,
		LocNeeded:          0.4,
		MUNeeded:           0.25,
		DelayAmplitude:     360,
		DelayLambda:        3,
		AmbientDeviation:   5,
		DeparturesFactor:   1,
		DeparturesMaxDelay: 6,
		Extension:          "trn",
		Jobs:               1,
	}
}

// Load overlays the YAML file at path on top of Default().
func Load(path string) (Weather, error) {
	w := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read %s: %w", path, err)
	}
	if err := w.Decode(data); err != nil {
		return w, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return w, nil
}

// Decode overlays YAML data on w. Keys absent from data keep their value.
func (w *Weather) Decode(data []byte) error {
	return yaml.Unmarshal(data, w)
}

// Encode renders w as YAML.
func (w Weather) Encode() ([]byte, error) {
	return yaml.Marshal(w)
}

// Validate rejects values the engine cannot use.
func (w Weather) Validate() error {
	for name, v := range map[string]float64{
		"friction":                w.Friction,
		"loc_needed_friction":     w.LocNeeded,
		"mu_needed_friction":      w.MUNeeded,
		"delay_amplitude":         w.DelayAmplitude,
		"delay_lambda":            w.DelayLambda,
		"ambient_deviation":       w.AmbientDeviation,
		"departures_delay_factor": w.DeparturesFactor,
		"departures_max_delay":    w.DeparturesMaxDelay,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s: not a finite number", name)
		}
	}
	switch {
	case w.Friction < 0:
		return fmt.Errorf("friction must not be negative, got %v", w.Friction)
	case w.LocNeeded <= 0:
		return fmt.Errorf("loc_needed_friction must be positive, got %v", w.LocNeeded)
	case w.MUNeeded <= 0:
		return fmt.Errorf("mu_needed_friction must be positive, got %v", w.MUNeeded)
	case w.DeparturesMaxDelay < 0:
		return fmt.Errorf("departures_max_delay must not be negative, got %v", w.DeparturesMaxDelay)
	case w.Jobs < 1:
		return fmt.Errorf("jobs must be at least 1, got %d", w.Jobs)
	case w.Extension == "":
		return fmt.Errorf("extension must not be empty")
	}
	if p := w.DelayProbability; p != nil && (*p < 0 || *p > 1 || math.IsNaN(*p)) {
		return fmt.Errorf("delay_probability must be within [0,1], got %v", *p)
	}
	return nil
}

// Multipliers returns the acceleration multipliers for both consist classes.
func (w Weather) Multipliers() traction.Multipliers {
	return traction.Compute(w.Friction, w.LocNeeded, w.MUNeeded, w.Multiplier)
}

// DelayModel returns the entry-delay model; sources without their
// governing parameter stay nil.
func (w Weather) DelayModel() delay.Model {
	m := delay.Model{DenyEarly: w.DenyEarly}
	if w.DelayProbability != nil {
		m.Burst = &delay.Burst{
			Probability: *w.DelayProbability,
			Amplitude:   w.DelayAmplitude,
			Lambda:      w.DelayLambda,
		}
	}
	if w.AmbientMean != nil {
		m.Ambient = &delay.Ambient{Mean: *w.AmbientMean, Deviation: w.AmbientDeviation}
	}
	return m
}

// Dwell returns the departure adjuster with the cap converted to seconds.
func (w Weather) Dwell() dwell.Adjuster {
	return dwell.Adjuster{
		Factor:     w.DeparturesFactor,
		MaxSeconds: int64(w.DeparturesMaxDelay * 60),
	}
}

// ---------------------------------------------------------------------------
// Optional flag values
// ---------------------------------------------------------------------------

// OptFloat is a flag.Value that allocates on first Set.
type OptFloat struct{ P **float64 }

func (o OptFloat) String() string {
	if o.P == nil || *o.P == nil {
		return ""
	}
	return strconv.FormatFloat(**o.P, 'g', -1, 64)
}

func (o OptFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*o.P = &v
	return nil
}

// OptUint is OptFloat for uint64.
type OptUint struct{ P **uint64 }

func (o OptUint) String() string {
	if o.P == nil || *o.P == nil {
		return ""
	}
	return strconv.FormatUint(**o.P, 10)
}

func (o OptUint) Set(s string) error {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*o.P = &v
	return nil
}
