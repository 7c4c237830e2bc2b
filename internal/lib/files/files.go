// Package files resolves and inspects schedule source files.
//
// It is backed by afero so services can be exercised against an in-memory
// filesystem.
package files

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// FileStat is the audit metadata captured for an ingestion source.
//
// ChangeTime, Owner and Group are best effort: filesystems that do not
// report them leave ChangeTime equal to ModTime and the names empty.
type FileStat struct {
	Path       string      `json:"path"`
	Size       int64       `json:"size"`
	ModTime    time.Time   `json:"mtime"`
	ChangeTime time.Time   `json:"ctime"`
	Owner      string      `json:"owner"`
	Group      string      `json:"group"`
	Mode       fs.FileMode `json:"mode"`
}

// Source is the filesystem collaborator of the ingest service.
type Source struct {
	fs   afero.Fs
	root string
}

// NewSource serves paths from fsys, resolving relative paths against root.
func NewSource(fsys afero.Fs, root string) *Source {
	return &Source{fs: fsys, root: root}
}

// NewOSSource serves paths from the operating system filesystem.
func NewOSSource(root string) *Source {
	return NewSource(afero.NewOsFs(), root)
}

// Resolve joins a relative name onto the source root.
func (s *Source) Resolve(name string) string {
	if name == "" || filepath.IsAbs(name) || s.root == "" {
		return name
	}
	return filepath.Join(s.root, name)
}

// Exists reports whether path names a regular file.
func (s *Source) Exists(path string) (bool, error) {
	fi, err := s.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}

// Stat returns the audit metadata for path.
func (s *Source) Stat(path string) (FileStat, error) {
	fi, err := s.fs.Stat(path)
	if err != nil {
		return FileStat{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return statOf(path, fi), nil
}

// Open opens path for reading. The caller closes it.
func (s *Source) Open(path string) (afero.File, error) {
	return s.fs.Open(path)
}

func statOf(path string, fi fs.FileInfo) FileStat {
	st := FileStat{
		Path:       path,
		Size:       fi.Size(),
		ModTime:    fi.ModTime(),
		ChangeTime: fi.ModTime(),
		Mode:       fi.Mode().Perm(),
	}
	ownership(fi, &st)
	return st
}
