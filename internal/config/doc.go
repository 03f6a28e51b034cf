// Package config loads, normalizes, and validates clapper configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FIREBASE_API_KEY and CLAPPER_SMTP_PASSWORD. The Config type centralizes every
// knob the daemon and CLI need, so SMTP credentials, identity provider keys,
// and transition timings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
