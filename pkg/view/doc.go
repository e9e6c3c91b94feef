// Package view models the configuration surface that decides which property
// a board groups by.
//
// A Context is a point-in-time snapshot of every candidate source for the
// groupBy key. Resolve walks the candidates in fixed precedence order and
// returns the first present value, falling back to the none sentinel. The
// snapshot is rebuilt for every update notification; nothing in this package
// caches a resolution, because the set of populated sources legitimately
// changes while the host finishes initializing.
package view
