// Package deps locates the external binaries nlisten shells out to and
// reports whether they are usable.
package deps
