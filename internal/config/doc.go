// Package config loads, normalizes, and validates the TOML configuration
// for reelsync. Path fields are tilde-expanded and made absolute during
// Load; callers can rely on every returned Config having passed Validate.
package config
