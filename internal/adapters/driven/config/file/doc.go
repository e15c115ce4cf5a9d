// Package file provides the TOML-backed ConfigStore.
//
// Configuration lives at ~/.vigil/config.toml with 0600 permissions.
// Nested TOML tables are flattened to dot-notation keys on load, so
// [tracker] similarity_threshold is read as "tracker.similarity_threshold".
package file
