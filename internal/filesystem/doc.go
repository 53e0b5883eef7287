// Package filesystem retries stat and open calls that fail with an NFS
// stale file handle (ESTALE).
//
// Libraries mounted over NFS report ESTALE for a short while after the
// server re-exports a directory. A scan or clean pass that took the error
// at face value would skip files or, worse, treat them as deleted. [Stat]
// and [Open] retry with exponential backoff; every other error is returned
// at once.
//
//	info, err := filesystem.Stat(path)
//
// Use [StatWithRetry] and [OpenWithRetry] for custom backoff.
package filesystem
