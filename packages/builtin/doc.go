// Package builtin provides built-in functions callable from templates.
//
// Available functions:
//   - uuid(): Generate a random UUID v4
//   - now(), date(layout): Current time formatted as RFC 3339 or a Go layout
//   - timestamp(), timestampMs(): Current Unix time in seconds or milliseconds
//   - random(min, max): Random integer in range
//   - randomString(length), randomEmail(): Random test data
//   - base64(value), base64Decode(value): Base64 encoding
//   - md5(value), sha256(value): Hex digests
//   - urlEncode(value), urlDecode(value): Query escaping
//
// Functions are invoked using the {{name(args)}} syntax in templates.
package builtin
