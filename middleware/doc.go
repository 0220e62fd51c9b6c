// Package middleware provides net/http adapters over the shield Engine:
// request sanitization, session-backed authentication, and implicit activity
// logging keyed to the response status.
//
// The adapters are optional glue. Frameworks with their own middleware shape
// can call the Engine methods directly; nothing in shield core depends on
// this package.
package middleware
