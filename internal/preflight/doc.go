// Package preflight provides readiness checks for the filesystem paths torex
// writes to.
//
// These checks run in two contexts:
//   - Extraction calls EnsureFreeSpace before writing any member so a full
//     disk is reported up front instead of halfway through an episode.
//   - The CLI "torex check" command runs RunAll and renders each Result.
package preflight
