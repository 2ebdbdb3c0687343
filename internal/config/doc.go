// Package config handles configuration loading, parsing, and validation
// from defaults, an optional config.yaml file, and TASKTRACKER_-prefixed
// environment variables. A configuration that fails validation is fatal: the
// worker must not start its scheduler with missing settings.
package config
