/*
Package config loads settings for the takt tools from YAML, JSON or TOML.

# Overview

Config wraps a decoded document and provides typed accessors that return
a default on a missing key or a type mismatch. Keys may be dotted paths
into nested maps:

	cfg, err := config.FromFile("takt.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	strict := cfg.Bool("takt.strict", false)
	home := cfg.Seconds("takt.subroutines.Home", 0) // "2.5s", 2.5 and "2.5" all work

# Settings

Settings collects the options the command line tools share:

	s := cfg.Settings()
	if err := s.Validate(); err != nil {
	    log.Fatal(err)
	}

Validate reports every invalid field, joined with errors.Join.

# File Loading

FromFile picks the format from the extension (.yaml, .yml, .json, .toml) and
expands ${VAR} references from the environment. Load merges several files,
later ones winning at the top level.

# Thread Safety

Config is safe for concurrent reads. The underlying map is not modified
after creation.
*/
package config
