package packinterop

import (
	"fmt"

	"github.com/packwiz/mrpack-utils/core"
)

// Open opens an mrpack from a path, which may be an .mrpack file or a folder it was extracted to
func Open(path string) (PackSource, error) {
	zipped, err := isZip(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if zipped {
		return OpenZip(path)
	}
	return OpenDisk(path)
}

// LoadManifest opens and parses an mrpack
func LoadManifest(path string, opts ...core.ParseOption) (*core.Manifest, error) {
	source, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	data, err := source.IndexData()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	manifest, err := core.ParseManifest(data, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return manifest, nil
}
