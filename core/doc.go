//go:generate flatc --go --go-namespace fb -o internal schema/archive.fbs

// Package gud implements a single-file archive that stores the full history
// of a directory tree.
//
// Each commit appends one version: a File Header and payload per tracked
// file, a Version Header listing them, and a fresh Version Directory. A
// fixed root pointer at offset 0 names the current directory and is the
// only location ever overwritten, which makes publishing a version atomic.
//
// Payloads are either complete snapshots or textual patches against the
// previous version of the same path. The Reader indexes every header at
// open time and reconstructs any file at any version by replaying the
// patch chain from its nearest snapshot.
package gud
