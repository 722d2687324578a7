package ttl

import "time"

// Preset TTLs by expected mutation frequency.
const (
	PresetStatic           = "static"
	PresetLowMutation      = "low_mutation"
	PresetDefault          = "default"
	PresetHighMutation     = "high_mutation"
	PresetVeryHighMutation = "very_high_mutation"
)

// presetDurations maps preset names to durations.
var presetDurations = map[string]time.Duration{
	PresetStatic:           30 * 24 * time.Hour,
	PresetLowMutation:      7 * 24 * time.Hour,
	PresetDefault:          12 * time.Hour,
	PresetHighMutation:     2 * time.Hour,
	PresetVeryHighMutation: 15 * time.Minute,
}

// PresetDuration resolves a preset name. Unknown names resolve to the
// default preset.
func PresetDuration(name string) time.Duration {
	if d, ok := presetDurations[name]; ok {
		return d
	}
	return presetDurations[PresetDefault]
}

// Presets returns the preset table for display purposes.
func Presets() map[string]time.Duration {
	out := make(map[string]time.Duration, len(presetDurations))
	for name, d := range presetDurations {
		out[name] = d
	}
	return out
}
