package dataset

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"
)

// FileSource reads a CSV file from local disk.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string { return s.Path }

func (s *FileSource) Open(ctx context.Context) (Table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return Table{}, newLoadError(KindNotFound, s.Path, err)
	}
	defer f.Close()

	table, err := ReadCSV(f)
	if err != nil {
		return Table{}, newLoadError(KindParseFailure, s.Path, err)
	}
	return table, nil
}

func (s *FileSource) ModTime() (time.Time, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return time.Time{}, err
	}
	if info.IsDir() {
		return time.Time{}, &fs.PathError{Op: "stat", Path: s.Path, Err: errors.New("is a directory")}
	}
	return info.ModTime(), nil
}
