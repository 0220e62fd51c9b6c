// Package internal holds small primitives shared by the shield root package:
// random session identifier generation and its string codec. Nothing here is
// part of the public API surface.
package internal
