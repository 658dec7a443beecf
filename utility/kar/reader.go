// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"io"
	"io/ioutil"

	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	magic := make([]byte, MagicLength)
	if num, err := r.ReadAt(magic, 0); num < MagicLength {
		return nil, errors.Wrapf(ErrFileFormat, "reading magic: %v", err)
	} else if !bytes.Equal(magic, Magic[:]) {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); num < HeaderSizeNumberLength {
		return nil, errors.Wrapf(ErrFileFormat, "reading header size: %v", err)
	}

	headerSize, err := binaryToint64(headerSizeBytes)
	if err != nil || headerSize <= 0 || headerSize > MaxHeaderSize {
		return nil, errors.Wrapf(ErrFileFormat, "header size %d", headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); int64(num) < headerSize {
		return nil, errors.Wrapf(ErrFileFormat, "reading header: %v", err)
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, errors.Wrapf(ErrFileFormat, "decoding header: %v", err)
	}

	ar := &Archive{
		reader:     r,
		header:     header,
		dataOffset: MagicLength + HeaderSizeNumberLength + headerSize,
		index:      make(map[string]IndexEntry, len(header.Index)),
	}
	for _, e := range header.Index {
		ar.index[e.Name] = e
	}
	return ar, nil
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader     io.ReaderAt
	header     Header
	dataOffset int64
	index      map[string]IndexEntry
}

// Header returns the archive header
func (a *Archive) Header() Header {
	return a.header
}

// Files returns the names of the archived files in the order they were added
func (a *Archive) Files() []string {
	names := make([]string, len(a.header.Index))
	for i, e := range a.header.Index {
		names[i] = e.Name
	}
	return names
}

// Stat returns the index entry of a file
func (a *Archive) Stat(name string) (IndexEntry, bool) {
	e, ok := a.index[name]
	return e, ok
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decompressing %s", name)
	}
	if int64(len(data)) != r.Size() {
		return nil, errors.Wrapf(ErrFileFormat, "%s: expected %d bytes, got %d", name, r.Size(), len(data))
	}
	return data, nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	e, ok := a.index[name]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	section := io.NewSectionReader(a.reader, a.dataOffset+e.Offset, e.CompressedSize)
	return &Reader{
		entry:  e,
		reader: lz4.NewReader(section),
	}, nil
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry  IndexEntry
	reader *lz4.Reader
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.reader.Read(p)
}

// Size returns the decompressed size of the file
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Name returns the name of the file
func (r *Reader) Name() string {
	return r.entry.Name
}
