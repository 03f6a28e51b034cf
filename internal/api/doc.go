// Package api defines wire-format types and converters for the daemon's HTTP
// API. It translates stored contact submissions and readiness checks into
// transport-friendly DTOs that the site and the CLI can render without
// coupling to internal types.
//
// DTOs use camelCase JSON tags. Statuses are exposed as lowercase strings and
// timestamps use RFC3339 with milliseconds in UTC.
package api
