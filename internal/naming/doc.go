// Package naming derives canonical series titles from torrent release names.
//
// ResolveTitle implements the single recognized naming convention: a dotted
// title followed by an SxxEyy marker. Describe layers best-effort release
// metadata on top for diagnostics; it never changes the resolved title.
package naming
