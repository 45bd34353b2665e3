package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Settings are the options shared by the takt command line tools.
type Settings struct {
	// Strict turns undated actions into errors.
	Strict bool
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is text or json.
	LogFormat string
	// StorePath is the SQLite file reports are saved to. Empty disables saving.
	StorePath string
	// RenderFormat is dot, svg or png.
	RenderFormat string
	// Subroutines maps opaque subroutine IDs or labels to seconds.
	Subroutines map[string]float64
	// Vars are substituted into ${name} references in definitions.
	Vars map[string]any
}

var (
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"text", "json"}
	renderFormats = []string{"dot", "svg", "png"}
)

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:     "info",
		LogFormat:    "text",
		RenderFormat: "svg",
		Subroutines:  map[string]float64{},
		Vars:         map[string]any{},
	}
}

// Settings reads Settings from the config, falling back to DefaultSettings
// for missing keys:
//
//	takt:
//	  strict: true
//	  subroutines:
//	    Home: 2.5s
//	  vars:
//	    stroke: 120
//	log:
//	  level: debug
//	  format: json
//	report:
//	  store: reports.db
//	render:
//	  format: png
func (c Config) Settings() Settings {
	d := DefaultSettings()
	s := Settings{
		Strict:       c.Bool("takt.strict", d.Strict),
		LogLevel:     strings.ToLower(c.String("log.level", d.LogLevel)),
		LogFormat:    strings.ToLower(c.String("log.format", d.LogFormat)),
		StorePath:    c.String("report.store", d.StorePath),
		RenderFormat: strings.ToLower(c.String("render.format", d.RenderFormat)),
		Subroutines:  c.SecondsMap("takt.subroutines"),
		Vars:         c.Sub("takt.vars").Raw(),
	}
	return s
}

// Validate reports every invalid field at once.
func (s Settings) Validate() error {
	var errs []error
	if !slices.Contains(logLevels, s.LogLevel) {
		errs = append(errs, fmt.Errorf("log level %q: want one of %s", s.LogLevel, strings.Join(logLevels, ", ")))
	}
	if !slices.Contains(logFormats, s.LogFormat) {
		errs = append(errs, fmt.Errorf("log format %q: want one of %s", s.LogFormat, strings.Join(logFormats, ", ")))
	}
	if !slices.Contains(renderFormats, s.RenderFormat) {
		errs = append(errs, fmt.Errorf("render format %q: want one of %s", s.RenderFormat, strings.Join(renderFormats, ", ")))
	}
	for name, secs := range s.Subroutines {
		if secs < 0 {
			errs = append(errs, fmt.Errorf("subroutine %q: negative duration %g", name, secs))
		}
	}
	return errors.Join(errs...)
}
