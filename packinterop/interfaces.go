// Package packinterop reads mrpack archives, either zipped or unpacked into a folder.
package packinterop

import "github.com/packwiz/mrpack-utils/core"

// PackSource is an opened mrpack
type PackSource interface {
	core.ArchiveReader
	// IndexData returns the contents of modrinth.index.json
	IndexData() ([]byte, error)
	Close() error
}
