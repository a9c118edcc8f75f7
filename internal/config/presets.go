package config

import "sort"

// Presets reproduce the stock scenes, keyed by mode then preset name. Each
// entry edits a copy of DefaultConfig.
var Presets = map[string]map[string]func(*Config){
	"starfield-3d": {
		"hero": func(c *Config) {
			c.Count = 800
		},
		"calm": func(c *Config) {
			c.Count = 200
			c.ReducedMotion = true
		},
	},
	"gravity-board": {
		"skills": func(c *Config) {
			c.Count = 15
		},
		"pile": func(c *Config) {
			c.Count = 40
			c.Gravity.MinRadius, c.Gravity.MaxRadius = 20, 30
		},
	},
	"network": {
		"constellation": func(c *Config) {
			c.Count, c.Speed, c.Opacity = 80, 0.5, 0.6
			c.Color = "#8b5cf6"
		},
	},
	"matrix": {
		"rain": func(c *Config) {
			c.Count, c.Speed, c.Opacity = 120, 1, 0.8
			c.Color = "#00ff41"
		},
	},
	"dust": {
		"ambient": func(c *Config) {
			c.Count, c.Speed, c.Opacity = 150, 0.3, 0.4
		},
	},
	"stars": {
		"stars": func(c *Config) {
			c.Count, c.Speed, c.Opacity = 200, 0.2, 0.8
		},
	},
	"noise": {
		"grain": func(c *Config) {
			c.Count = 0
			c.Noise.Density = 0.05
		},
	},
}

func GetPreset(mode, name string) *Config {
	presets, ok := Presets[mode]
	if !ok {
		return nil
	}
	apply, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Mode = mode
	apply(cfg)
	return cfg
}

// FindPreset looks a preset up by name alone.
func FindPreset(name string) *Config {
	for mode, presets := range Presets {
		if _, ok := presets[name]; ok {
			return GetPreset(mode, name)
		}
	}
	return nil
}

func ListPresets(mode string) []string {
	presets, ok := Presets[mode]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListModes() []string {
	modes := make([]string, 0, len(Presets))
	for m := range Presets {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return modes
}
