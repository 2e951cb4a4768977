package packinterop

import (
	"os"
	"path/filepath"

	"github.com/packwiz/mrpack-utils/core"
)

// diskPackSource is an mrpack that has been unpacked into a folder
type diskPackSource struct {
	basePath string
	files    []string
}

// OpenDisk reads an unpacked mrpack from a folder
func OpenDisk(basePath string) (PackSource, error) {
	source := &diskPackSource{basePath: basePath}
	err := filepath.WalkDir(basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		// Get the name of the file, relative to the pack folder
		name, err := filepath.Rel(basePath, path)
		if err != nil {
			return err
		}
		source.files = append(source.files, filepath.ToSlash(name))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return source, nil
}

func (s *diskPackSource) ListEntries() []string {
	return s.files
}

func (s *diskPackSource) Read(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.basePath, filepath.FromSlash(path)))
}

func (s *diskPackSource) IndexData() ([]byte, error) {
	return s.Read(core.IndexFileName)
}

func (s *diskPackSource) Close() error {
	return nil
}
