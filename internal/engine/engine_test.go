package engine_test

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zsw/internal/delay"
	"zsw/internal/document"
	"zsw/internal/engine"
	"zsw/internal/failure"
	"zsw/internal/settings"
)

const trn = `<?xml version="1.0" encoding="UTF-8"?>
<Zusi>
<Info DateiTyp="Zug"/>
<Zug Gattung="RE" APBeschl="1.5">
<!-- Fahrplan -->
<FahrplanEintrag Ank="2024-01-31 23:50:00" Abf="2024-01-31 23:52:00" Betrst="A"/>
<FahrplanEintrag Ank="2024-02-01 00:20:00" Abf="2024-02-01 00:21:00" Betrst="B"/>
<FahrplanEintrag Ank="2024-02-01 00:40:00" Betrst="C"/>
<FahrzeugVarianten>
<FahrzeugInfo><Datei Dateiname="et442a.fzg"/></FahrzeugInfo>
<FahrzeugInfo><Datei Dateiname="et442b.fzg"/></FahrzeugInfo>
</FahrzeugVarianten>
</Zug>
</Zusi>
`

func load(t *testing.T, s string) *etree.Document {
	t.Helper()
	doc, err := document.Parse([]byte(s))
	require.NoError(t, err)
	return doc
}

func zug(t *testing.T, doc *etree.Document) *etree.Element {
	t.Helper()
	z, err := document.Train(doc)
	require.NoError(t, err)
	return z
}

func ptr(v float64) *float64 { return &v }

// fixed draws 0.5 uniformly and the distribution mean.
type fixed struct{}

func (fixed) Float64() float64     { return 0.5 }
func (fixed) NormFloat64() float64 { return 0 }

func TestSeededRunsAreReproducible(t *testing.T) {
	w := settings.Default()
	w.DelayProbability = ptr(0.7)
	w.AmbientMean = ptr(0)
	e, err := engine.New(w)
	require.NoError(t, err)

	run := func() string {
		src := rand.New(rand.NewPCG(11, 12))
		var out []byte
		for i := 0; i < 5; i++ {
			doc := load(t, trn)
			require.NoError(t, e.Mutate(doc, src))
			b, err := document.Bytes(doc)
			require.NoError(t, err)
			out = append(out, b...)
		}
		return string(out)
	}
	assert.Equal(t, run(), run())
}

func TestNewSelectsSteps(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*settings.Weather)
		want   []string
	}{
		{"defaults", func(*settings.Weather) {}, []string{}},
		{"multiplier", func(w *settings.Weather) { w.Multiplier = ptr(1) }, []string{"traction"}},
		{"friction", func(w *settings.Weather) { w.Friction = 0.3 }, []string{"traction"}},
		{"probability", func(w *settings.Weather) { w.DelayProbability = ptr(0.5) }, []string{"delay"}},
		{"ambient", func(w *settings.Weather) { w.AmbientMean = ptr(1) }, []string{"delay"}},
		{"dwell", func(w *settings.Weather) { w.DeparturesFactor = 1.5 }, []string{"dwell"}},
		{"all", func(w *settings.Weather) {
			w.Friction = 0.2
			w.AmbientMean = ptr(1)
			w.DeparturesFactor = 2
		}, []string{"traction", "delay", "dwell"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := settings.Default()
			tc.mutate(&w)
			e, err := engine.New(w)
			require.NoError(t, err)
			assert.Equal(t, tc.want, e.Steps())
			assert.Equal(t, len(tc.want) == 0, e.Empty())
		})
	}
}

func TestNewRejectsBadDeviation(t *testing.T) {
	w := settings.Default()
	w.AmbientMean = ptr(1)
	w.AmbientDeviation = 0
	_, err := engine.New(w)
	kind, _ := failure.KindOf(err)
	assert.Equal(t, failure.InvalidDistributionParameters, kind)
}

func TestMutateEndToEnd(t *testing.T) {
	w := settings.Default()
	w.Multiplier = ptr(2)
	w.AmbientMean = ptr(10)
	w.DeparturesFactor = 2
	e, err := engine.New(w)
	require.NoError(t, err)

	doc := load(t, trn)
	require.NoError(t, e.Mutate(doc, fixed{}))

	z := zug(t, doc)
	v, err := strconv.ParseFloat(z.SelectAttrValue("APBeschl", ""), 64)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v, 1e-6)

	entries := z.SelectElements("FahrplanEintrag")
	assert.Equal(t, "2024-02-01 00:00:00", entries[0].SelectAttrValue("Ank", ""))
	// The wait is measured from the delayed arrival (-8 min), doubled and
	// added to the original departure.
	assert.Equal(t, "2024-01-31 23:36:00", entries[0].SelectAttrValue("Abf", ""))
	assert.Equal(t, "2024-02-01 00:20:00", entries[1].SelectAttrValue("Ank", ""))
	assert.Equal(t, "2024-02-01 00:23:00", entries[1].SelectAttrValue("Abf", ""))
	assert.Nil(t, entries[2].SelectAttr("Abf"))

	out, err := document.Bytes(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<!-- Fahrplan -->")
}

// failingStep records whether it ran.
type failingStep struct {
	ran *bool
	err error
}

func (failingStep) Name() string { return "failing" }
func (failingStep) Op() string   { return "failing on purpose" }
func (s failingStep) Apply(*etree.Element, delay.Source) error {
	*s.ran = true
	return s.err
}

func TestMutateStopsAtFirstFailure(t *testing.T) {
	var first, second bool
	boom := failure.New(failure.MissingChild, "x")
	e := engine.NewWithSteps(failingStep{ran: &first, err: boom}, failingStep{ran: &second})

	err := e.Mutate(load(t, trn), nil)
	require.Error(t, err)
	assert.True(t, first)
	assert.False(t, second)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, []string{"failing on purpose"}, failure.Ops(err))
}

func TestMutateChainsContext(t *testing.T) {
	w := settings.Default()
	w.Multiplier = ptr(0.5)
	e, err := engine.New(w)
	require.NoError(t, err)

	doc := load(t, `<Zusi><Zug APBeschl="n/a"><FahrzeugVarianten/></Zug></Zusi>`)
	err = e.Mutate(doc, nil)
	require.Error(t, err)
	chain := failure.Chain(err)
	require.Len(t, chain, 3)
	assert.Contains(t, chain[0], "parse error")
	assert.Equal(t, "parsing APBeschl", chain[1])
	assert.Equal(t, "applying multiplier", chain[2])
}

func TestMutateMissingTrain(t *testing.T) {
	e := engine.NewWithSteps()
	err := e.Mutate(load(t, `<Zusi/>`), nil)
	assert.True(t, errors.Is(err, &failure.Error{Kind: failure.MissingTag, Subject: "Zug"}))
}
