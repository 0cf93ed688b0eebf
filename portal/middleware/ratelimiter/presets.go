package ratelimiter

import (
	"sort"
	"time"
)

var (
	Strict   = NewConfig(10, time.Minute)
	Standard = NewConfig(30, time.Minute)
	Relaxed  = NewConfig(100, time.Minute)
	// Form guards contact and newsletter submissions.
	Form   = NewConfig(3, 5*time.Minute)
	Search = NewConfig(20, time.Minute)
	Auth   = NewConfig(5, 15*time.Minute)
)

var presets = map[string]Config{
	"strict":   Strict,
	"standard": Standard,
	"relaxed":  Relaxed,
	"form":     Form,
	"search":   Search,
	"auth":     Auth,
}

// Preset returns a copy of the named preset.
func Preset(name string) (Config, bool) {
	cfg, ok := presets[name]
	return cfg, ok
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
