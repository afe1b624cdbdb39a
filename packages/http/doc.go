// Package http builds wire-level requests from schema requests and sends
// them.
//
// It provides:
//   - Strict interpolation of URL, headers, query and body
//   - JSON, GraphQL, XML, text, form-urlencoded and multipart bodies
//   - A client with configurable timeouts, redirects, TLS and proxy
//   - Response helpers including gjson path lookups
package http
