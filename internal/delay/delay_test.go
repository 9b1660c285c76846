package delay_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zsw/internal/delay"
	"zsw/internal/failure"
)

// script replays fixed draws and fails the test when it runs dry.
type script struct {
	t       *testing.T
	uniform []float64
	normal  []float64
}

func (s *script) Float64() float64 {
	require.NotEmpty(s.t, s.uniform, "unexpected uniform draw")
	v := s.uniform[0]
	s.uniform = s.uniform[1:]
	return v
}

func (s *script) NormFloat64() float64 {
	require.NotEmpty(s.t, s.normal, "unexpected normal draw")
	v := s.normal[0]
	s.normal = s.normal[1:]
	return v
}

func train(t *testing.T, body string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<Zug>`+body+`</Zug>`))
	return doc.Root()
}

const schedule = `<FahrplanEintrag Betrst="Start"/>` +
	`<FahrplanEintrag Ank="2024-01-31 23:50:00" Abf="2024-01-31 23:52:00"/>` +
	`<FahrplanEintrag Ank="2024-02-01 00:10:00"/>`

func TestBurstMagnitude(t *testing.T) {
	m := delay.Model{Burst: &delay.Burst{Probability: 0.5, Amplitude: 360, Lambda: 3}}
	src := &script{t: t, uniform: []float64{0.25, 0.1}}
	got, err := m.Minutes(src)
	require.NoError(t, err)
	assert.InDelta(t, 360*(math.Exp(0.3)-1), got, 1e-9)
}

func TestBurstNotTriggered(t *testing.T) {
	m := delay.Model{Burst: &delay.Burst{Probability: 0.5, Amplitude: 360, Lambda: 3}}
	got, err := m.Minutes(&script{t: t, uniform: []float64{0.5}})
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestProbabilityBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	always := delay.Model{Burst: &delay.Burst{Probability: 1, Amplitude: 360, Lambda: 3}}
	never := delay.Model{Burst: &delay.Burst{Probability: 0, Amplitude: 360, Lambda: 3}}
	for i := 0; i < 200; i++ {
		// r == 0 would give a zero delay; skip the degenerate draw.
		src := &script{t: t, uniform: []float64{rng.Float64(), 0.01 + rng.Float64()*0.99}}
		secs, err := always.Seconds(src)
		require.NoError(t, err)
		assert.Positive(t, secs)

		secs, err = never.Seconds(&script{t: t, uniform: []float64{rng.Float64()}})
		require.NoError(t, err)
		assert.Zero(t, secs)
	}
}

func TestAmbientAndSum(t *testing.T) {
	m := delay.Model{
		Burst:   &delay.Burst{Probability: 1, Amplitude: 10, Lambda: 1},
		Ambient: &delay.Ambient{Mean: 2, Deviation: 5},
	}
	src := &script{t: t, uniform: []float64{0.3, 0.5}, normal: []float64{-0.4}}
	got, err := m.Minutes(src)
	require.NoError(t, err)
	assert.InDelta(t, 10*(math.Exp(0.5)-1)+2+5*-0.4, got, 1e-9)
}

func TestDenyEarly(t *testing.T) {
	m := delay.Model{Ambient: &delay.Ambient{Mean: -3, Deviation: 5}}
	got, err := m.Seconds(&script{t: t, normal: []float64{-1}})
	require.NoError(t, err)
	assert.Equal(t, int64(-480), got)

	m.DenyEarly = true
	rng := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 500; i++ {
		got, err := m.Seconds(rng)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, int64(0))
	}
}

func TestTruncatesToWholeSeconds(t *testing.T) {
	m := delay.Model{Ambient: &delay.Ambient{Mean: 1.0, Deviation: 1}}
	got, err := m.Seconds(&script{t: t, normal: []float64{0.0099}})
	require.NoError(t, err)
	assert.Equal(t, int64(60), got)

	m = delay.Model{Ambient: &delay.Ambient{Mean: -1.0, Deviation: 1}}
	got, err = m.Seconds(&script{t: t, normal: []float64{-0.0099}})
	require.NoError(t, err)
	assert.Equal(t, int64(-60), got)
}

func TestInvalidDeviation(t *testing.T) {
	for _, dev := range []float64{0, -1, math.NaN()} {
		m := delay.Model{Ambient: &delay.Ambient{Mean: 1, Deviation: dev}}
		_, err := m.Minutes(&script{t: t})
		kind, ok := failure.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, failure.InvalidDistributionParameters, kind)
	}
}

func TestDelayShiftsFirstArrivalOnly(t *testing.T) {
	zug := train(t, schedule)
	m := delay.Model{Ambient: &delay.Ambient{Mean: 20, Deviation: 1}}
	secs, err := m.Delay(zug, &script{t: t, normal: []float64{0}})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), secs)

	entries := zug.SelectElements("FahrplanEintrag")
	assert.Nil(t, entries[0].SelectAttr("Ank"))
	assert.Equal(t, "2024-02-01 00:10:00", entries[1].SelectAttrValue("Ank", ""))
	assert.Equal(t, "2024-01-31 23:52:00", entries[1].SelectAttrValue("Abf", ""))
	assert.Equal(t, "2024-02-01 00:10:00", entries[2].SelectAttrValue("Ank", ""))
}

func TestDelayZeroIsNoOp(t *testing.T) {
	zug := train(t, "")
	m := delay.Model{Burst: &delay.Burst{Probability: 0, Amplitude: 360, Lambda: 3}}
	secs, err := m.Delay(zug, &script{t: t, uniform: []float64{0.2}})
	require.NoError(t, err)
	assert.Zero(t, secs)
}

func TestApplyErrors(t *testing.T) {
	err := delay.Apply(train(t, `<FahrzeugVarianten/>`), 60)
	assert.True(t, errors.Is(err, &failure.Error{Kind: failure.MissingEntry}))

	err = delay.Apply(train(t, `<FahrplanEintrag/>`), 60)
	assert.True(t, errors.Is(err, &failure.Error{Kind: failure.MissingAttribute, Subject: "Ank"}))

	err = delay.Apply(train(t, `<FahrplanEintrag Ank="morgen"/>`), 60)
	kind, _ := failure.KindOf(err)
	assert.Equal(t, failure.ParseError, kind)

	err = delay.Apply(train(t, `<FahrplanEintrag Ank="9999-12-31 23:59:00"/>`), 60)
	kind, _ = failure.KindOf(err)
	assert.Equal(t, failure.Overflow, kind)
}
