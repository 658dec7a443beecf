// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"sync"

	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
)

// NewBuilder creates a new Builder. Do not fill the Index in
// the header, it will be overwritten anyway.
func NewBuilder(header Header) (*Builder, error) {
	temp, err := ioutil.TempDir("", "karBuilder")
	if err != nil {
		return nil, errors.Wrap(ErrTempFail, err.Error())
	}
	header.Index = nil
	return &Builder{
		tempDir: temp,
		header:  header,
		names:   make(map[string]struct{}),
	}, nil
}

type tempFile struct {

	// Name is the actual name of the file
	Name string

	// TempName is the path of the compressed copy
	TempName string

	// Size in uncompressed state
	Size int64

	Compressed int64
}

// Builder is the high level builder for the archive format.
// Archives are versioned and cannot be appended to, this Builder
// is the way to create an archive. Whenever Add is called, Builder
// stores a compressed copy in a temporary dir, WriteTo then bundles
// them together. Close removes the temporary dir.
type Builder struct {
	tempDir string
	header  Header

	mutex sync.Mutex
	files []tempFile
	names map[string]struct{}
}

// Add compresses data from r into the builder with a given name.
// Will block until lz4 finishes compression. Is safe
// to use concurrently in different goroutines.
func (b *Builder) Add(name string, r io.Reader) error {
	b.mutex.Lock()
	if _, ok := b.names[name]; ok {
		b.mutex.Unlock()
		return errors.Wrap(ErrDuplicate, name)
	}
	b.names[name] = struct{}{}
	b.mutex.Unlock()

	file, err := b.compress(name, r)
	if err != nil {
		b.mutex.Lock()
		delete(b.names, name)
		b.mutex.Unlock()
		return err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.files = append(b.files, file)
	return nil
}

// compress writes an lz4 copy of r into the temporary dir
func (b *Builder) compress(name string, r io.Reader) (tempFile, error) {
	f, err := ioutil.TempFile(b.tempDir, "blob")
	if err != nil {
		return tempFile{}, errors.Wrap(ErrTempFail, err.Error())
	}
	defer f.Close()

	fail := func(err error) (tempFile, error) {
		os.Remove(f.Name())
		return tempFile{}, err
	}

	writer := lz4.NewWriter(f)
	written, err := io.Copy(writer, r)
	if err != nil {
		return fail(errors.Wrapf(err, "compressing %s", name))
	}
	if err := writer.Close(); err != nil {
		return fail(errors.Wrapf(err, "compressing %s", name))
	}

	info, err := f.Stat()
	if err != nil {
		return fail(errors.Wrap(ErrTempFail, err.Error()))
	}

	return tempFile{
		Name:       name,
		TempName:   f.Name(),
		Size:       written,
		Compressed: info.Size(),
	}, nil
}

// AddBytes adds data held in memory
func (b *Builder) AddBytes(name string, data []byte) error {
	return b.Add(name, bytes.NewReader(data))
}

// Len returns the number of files added
func (b *Builder) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.files)
}

// WriteTo bundles and writes all of the files added to the Builder
// into a kar archive that is ready to use.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	header := b.header
	header.Index = make([]IndexEntry, 0, len(b.files))
	var offset int64
	for _, v := range b.files {
		header.Index = append(header.Index, IndexEntry{
			Name:           v.Name,
			Offset:         offset,
			Size:           v.Size,
			CompressedSize: v.Compressed,
		})
		offset += v.Compressed
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, errors.Wrap(err, "encoding header")
	}

	var total int64
	for _, part := range [][]byte{Magic[:], int64ToBinary(int64(len(rawHeader))), rawHeader} {
		n, err := w.Write(part)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	for _, v := range b.files {
		n, err := copyFile(w, v.TempName)
		total += n
		if err != nil {
			return total, errors.Wrapf(err, "writing %s", v.Name)
		}
	}
	return total, nil
}

func copyFile(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}

// Close removes the compressed copies, the Builder can't be used after.
func (b *Builder) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.files = nil
	return os.RemoveAll(b.tempDir)
}
