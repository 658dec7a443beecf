// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/devblok/trinvk/utility/kar"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil {
		currentUserName = u.Username
	}
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the package when compressing, defaults to the current user")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the archive given")
	compress        = flag.String("c", "", "Compress the given file/folder")
	dstFile         = flag.String("f", "out.kar", "Destination file when compressing")
	dstDir          = flag.String("o", ".", "Destination directory when extracting")
	silent          = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	if *extract != "" && *compress != "" {
		log.Fatal("only one operation at a time")
	}

	switch {
	case *extract != "":
		if err := extractFiles(*extract, *dstDir); err != nil {
			log.Fatal(err)
		}
	case *compress != "":
		name := *author
		if name == "" {
			name = currentUserName
		}
		header := kar.Header{
			Author:      name,
			DateCreated: time.Now().Unix(),
			Version:     *version,
		}
		if err := compressFiles(*compress, *dstFile, header); err != nil {
			log.Fatal(err)
		}
	default:
		flag.PrintDefaults()
	}
}

// compressFiles packs src, a file or a directory tree, into dst.
// Entries are named by their slash separated path relative to src.
func compressFiles(src, dst string, header kar.Header) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	var filesToCompress []string
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "walking %s", src)
	}

	karBuilder, err := kar.NewBuilder(header)
	if err != nil {
		return err
	}
	defer karBuilder.Close()

	root := src
	if info, err := os.Stat(src); err == nil && !info.IsDir() {
		root = filepath.Dir(src)
	}

	for _, ftc := range filesToCompress {
		rel, err := filepath.Rel(root, ftc)
		if err != nil {
			return err
		}
		if err := addFile(karBuilder, filepath.ToSlash(rel), ftc); err != nil {
			return err
		}
		log.WithField("file", rel).Debug("added")
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	size, err := karBuilder.WriteTo(out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return errors.Wrapf(err, "writing %s", dst)
	}

	log.WithFields(log.Fields{
		"archive": dst,
		"files":   karBuilder.Len(),
		"size":    size,
	}).Info("archive created")
	return nil
}

func addFile(b *kar.Builder, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return b.Add(name, f)
}

// extractFiles unpacks every file of the archive at src below dir
func extractFiles(src, dir string) error {
	r, err := mmap.Open(src)
	if err != nil {
		return errors.Wrapf(err, "mmap.Open(%s)", src)
	}
	defer r.Close()

	archive, err := kar.Open(r)
	if err != nil {
		return errors.Wrapf(err, "kar.Open(%s)", src)
	}

	for _, name := range archive.Files() {
		dst := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+name)))
		if err := extractFile(archive, name, dst); err != nil {
			return err
		}
		log.WithField("file", name).Debug("extracted")
	}

	header := archive.Header()
	log.WithFields(log.Fields{
		"archive": src,
		"author":  header.Author,
		"version": header.Version,
		"files":   len(archive.Files()),
	}).Info("archive extracted")
	return nil
}

func extractFile(archive *kar.Archive, name, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	r, err := archive.Open(name)
	if err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return errors.Wrapf(err, "extracting %s", name)
	}
	return out.Close()
}
