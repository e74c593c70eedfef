// Package fileutil provides the filesystem primitives the commit step relies
// on: existence checks, a move that never overwrites, and content hashing.
package fileutil
