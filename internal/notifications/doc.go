// Package notifications tells the studio about contact activity.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Per-event toggles
// in the [notifications] section silence contact or error alerts individually.
//
// The relay and daemon depend only on the small Service interface.
package notifications
