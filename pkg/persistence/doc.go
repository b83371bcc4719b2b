// Package persistence stores host preferences that outlive a single run,
// currently the "decode as" selections made in the shell or over the HTTP
// API. Preferences are kept as one JSON file per host.
package persistence
