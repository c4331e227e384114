// Package archive locates the RAR archive inside a torrent download directory
// and extracts selected members from it.
//
// Archive access goes through the Reader interface so extraction logic can be
// exercised without real RAR fixtures; OpenRAR provides the production reader.
package archive
