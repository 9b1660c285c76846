package settings

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Question describes one prompt used to build a preset interactively.
// Key is the YAML key the answer is stored under.
type Question struct {
	Key    string
	Prompt string
}

// Questions lists the prompts in display order. An empty answer keeps the
// default.
func Questions() []Question {
	return []Question{
		{Key: "multiplier", Prompt: "Global acceleration multiplier (empty: none)"},
		{Key: "friction", Prompt: "Rail friction coefficient [0.4]"},
		{Key: "loc_needed_friction", Prompt: "Friction needed by locomotives [0.4]"},
		{Key: "mu_needed_friction", Prompt: "Friction needed by multiple units [0.25]"},
		{Key: "delay_probability", Prompt: "Burst delay probability 0..1 (empty: off)"},
		{Key: "delay_amplitude", Prompt: "Burst delay amplitude, minutes [360]"},
		{Key: "delay_lambda", Prompt: "Burst delay lambda [3]"},
		{Key: "ambient_mean", Prompt: "Ambient delay mean, minutes (empty: off)"},
		{Key: "ambient_deviation", Prompt: "Ambient delay deviation, minutes [5]"},
		{Key: "deny_early", Prompt: "Never make trains early? true/false [false]"},
		{Key: "departures_delay_factor", Prompt: "Dwell time factor [1]"},
		{Key: "departures_max_delay", Prompt: "Maximum extra dwell, minutes [6]"},
	}
}

// FromAnswers builds a validated Weather from prompt answers keyed by
// Question.Key.
func FromAnswers(answers map[string]string) (Weather, error) {
	doc := make(map[string]any, len(answers))
	for _, q := range Questions() {
		raw := answers[q.Key]
		if raw == "" {
			continue
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return Weather{}, fmt.Errorf("%s: %w", q.Key, err)
		}
		doc[q.Key] = v
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return Weather{}, fmt.Errorf("marshal answers: %w", err)
	}
	w := Default()
	if err := w.Decode(data); err != nil {
		return Weather{}, fmt.Errorf("decode answers: %w", err)
	}
	if err := w.Validate(); err != nil {
		return Weather{}, err
	}
	return w, nil
}
