// Package operations records what a processing run did.
//
// RunManifest lists the executed stages with their row counts and timings,
// a JSON-safe cleaning summary, and every artifact the run wrote together
// with its size and BLAKE2b-256 digest. VerifyArtifact re-hashes a file to
// check that it has not changed since the run.
package operations
