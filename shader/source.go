// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shader

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/devblok/trinvk/utility/kar"
	"github.com/gobuffalo/packd"
	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// NewDirSource reads shaders from a directory
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// DirSource reads shaders from files in a directory
type DirSource struct {
	Dir string
}

// Open implements Source
func (d *DirSource) Open(name string) ([]byte, error) {
	return ioutil.ReadFile(d.path(name))
}

// ModTime reports when the shader file was last written
func (d *DirSource) ModTime(name string) (time.Time, error) {
	info, err := os.Stat(d.path(name))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (d *DirSource) path(name string) string {
	return filepath.Join(d.Dir, filepath.Clean("/"+name))
}

// List implements Source
func (d *DirSource) List() ([]string, error) {
	infos, err := ioutil.ReadDir(d.Dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, info := range infos {
		if !info.IsDir() {
			names = append(names, info.Name())
		}
	}
	return filterShaders(names), nil
}

// Box is what a packr box offers to find files
type Box interface {
	packd.Finder
	packd.Lister
}

// NewBoxSource reads shaders from a box, usually packr.NewBox("./shaders")
func NewBoxSource(box Box) *BoxSource {
	return &BoxSource{box: box}
}

// BoxSource reads shaders embedded into the binary
type BoxSource struct {
	box Box
}

// Open implements Source
func (b *BoxSource) Open(name string) ([]byte, error) {
	return b.box.Find(name)
}

// List implements Source
func (b *BoxSource) List() ([]string, error) {
	return filterShaders(b.box.List()), nil
}

// OpenArchive memory maps a kar archive of shaders
func OpenArchive(path string) (*ArchiveSource, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap.Open(%s)", path)
	}
	archive, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, errors.Wrapf(err, "kar.Open(%s)", path)
	}
	return &ArchiveSource{archive: archive, closer: r}, nil
}

// NewArchiveSource reads shaders from an opened archive
func NewArchiveSource(archive *kar.Archive) *ArchiveSource {
	return &ArchiveSource{archive: archive}
}

// ArchiveSource reads shaders from a kar archive
type ArchiveSource struct {
	archive *kar.Archive
	closer  interface{ Close() error }
}

// Open implements Source
func (a *ArchiveSource) Open(name string) ([]byte, error) {
	return a.archive.ReadAll(name)
}

// List implements Source
func (a *ArchiveSource) List() ([]string, error) {
	return filterShaders(a.archive.Files()), nil
}

// Close unmaps the archive if it was opened with OpenArchive
func (a *ArchiveSource) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}
