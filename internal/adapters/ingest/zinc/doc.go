// Package zinc downloads ligand library archives listed in a manifest
//
// Design choices:
// - A manifest line is an absolute URL or a path resolved against a base URL.
// - Bodies stream to a per-attempt <name>.<rand>.part and are renamed into place only once complete.
// - 4xx responses fail at once; 5xx and transport errors are retried with backoff.
package zinc
