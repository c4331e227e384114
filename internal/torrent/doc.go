// Package torrent models a completed torrent download and extracts its media.
//
// A Torrent is built eagerly: New locates the archive, resolves the series
// title, and computes the destination before anything is written, so every
// "unsupported torrent" condition surfaces before extraction starts. Category
// behavior (title parsing and the media extensions worth extracting) comes
// from a Kind registered under the torrent client's label.
package torrent
