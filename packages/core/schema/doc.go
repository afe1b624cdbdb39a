// Package schema defines the in-memory model of reqchain YAML files.
//
// A schema file declares:
//   - imports: other schema files merged into this one
//   - env: variables with a default value and per-environment overrides
//   - requests: named HTTP requests with headers, query, body and script hooks
//   - calls: named sequences of request names
//   - project: metadata, allowed only in the root file
//
// Bodies, scripts and multipart parts are discriminated by their
// type, language and kind fields respectively.
package schema
