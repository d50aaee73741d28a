// Package ir provides the canonical JSON encoding and the content hashes
// used to identify filters and compiled statements.
//
// Canonical JSON follows RFC 8785: object keys sorted by UTF-16 code
// units, no HTML escaping, ES6 number formatting. Strings are NFC
// normalized so that visually identical filters hash identically.
//
// ir imports nothing internal.
package ir
