// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shader

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Watch reports shaders written or created in dir by their file name
func Watch(dir string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "fsnotify.NewWatcher()")
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, errors.Wrapf(err, "watching %s", dir)
	}

	w := &Watcher{
		fs:      fs,
		changes: make(chan string, 16),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Watcher turns file system events into shader names
type Watcher struct {
	fs      *fsnotify.Watcher
	changes chan string
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func (w *Watcher) run() {
	defer w.wg.Done()
	defer close(w.changes)

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if !IsShader(ev.Name) {
				continue
			}
			select {
			case w.changes <- filepath.Base(ev.Name):
			case <-w.done:
				return
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("shader watcher")
		case <-w.done:
			return
		}
	}
}

// Changes delivers names of changed shaders, closed after Close
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Close stops watching
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}
