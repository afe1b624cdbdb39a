// Package env resolves environment variables declared in a schema and
// interpolates {{name}} templates against them.
//
// It provides functionality for:
//   - Strict and lenient {{variable}} interpolation with dotted paths
//   - {{$NAME}} lookups against the process environment
//   - Built-in function evaluation (uuid, timestamp, random, etc.)
//   - Dependency-ordered resolution of an environment with overrides
//   - Loading .env files
package env
