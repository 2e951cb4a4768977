package packinterop

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/packwiz/mrpack-utils/core"
)

type zipPackSource struct {
	reader *zip.Reader
	closer io.Closer
	// Zips may contain duplicate names, so entries are kept in archive order
	files []*zip.File
}

// NewZipPackSource reads an mrpack from an open zip reader
func NewZipPackSource(reader *zip.Reader) PackSource {
	source := &zipPackSource{reader: reader}
	source.updateFileList()
	return source
}

// OpenZip opens an .mrpack file from disk
func OpenZip(path string) (PackSource, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	source := &zipPackSource{reader: &r.Reader, closer: r}
	source.updateFileList()
	return source, nil
}

func (s *zipPackSource) updateFileList() {
	s.files = make([]*zip.File, 0, len(s.reader.File))
	for _, v := range s.reader.File {
		// Ignore directories
		if !v.Mode().IsDir() {
			s.files = append(s.files, v)
		}
	}
}

func (s *zipPackSource) ListEntries() []string {
	names := make([]string, len(s.files))
	for i, v := range s.files {
		names[i] = v.Name
	}
	return names
}

func (s *zipPackSource) Read(path string) ([]byte, error) {
	for _, v := range s.files {
		if v.Name == path {
			rc, err := v.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
}

func (s *zipPackSource) IndexData() ([]byte, error) {
	data, err := s.Read(core.IndexFileName)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s not found in zip: %w", core.IndexFileName, err)
	}
	return data, err
}

func (s *zipPackSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func isZip(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}
