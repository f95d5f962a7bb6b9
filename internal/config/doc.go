// Package config provides configuration structures and utilities for jsprobe.
// It defines the options for fetching and analyzing pages, report
// generation preferences, and the optional per-site YAML file.
package config
