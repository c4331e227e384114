// Package main hosts the torex CLI entrypoint and command graph.
//
// torex is meant to be called by a torrent client when a download completes:
//
//	torex <torrent_name> <torrent_download_dir> <label>
//
// The root command extracts the media from the download's RAR archive into
// the category's destination tree. Subcommands preview that decision
// (resolve), inspect archives (list), check destination readiness (check),
// manage configuration (config), and browse the extraction journal (history).
package main
