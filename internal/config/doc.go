// Package config provides configuration structures and utilities for pageaudit.
// It defines fetch, storage, queue and report settings, the optional
// .pageaudit YAML file with per-host overrides, and the XDG directories
// used for the database and configuration.
package config
