// Package config provides the run configuration of linkgraph: defaults,
// validation, the YAML config file and per-host site overrides.
package config
