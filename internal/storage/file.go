// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/tariel/internal/util"
)

// FileKV stores all keys in a single JSON object on disk.
// Every read goes to disk so values written by another instance are seen.
type FileKV struct {
	path string
	mu   sync.Mutex
}

// NewFileKV opens (but does not create) the JSON file at path.
func NewFileKV(path string) (*FileKV, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, unavailable(errors.Wrap(err, "resolve path"))
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, unavailable(errors.Wrap(err, "create storage directory"))
	}
	return &FileKV{path: filepath.Clean(abs)}, nil
}

// Path returns the backing file.
func (f *FileKV) Path() string { return f.path }

func (f *FileKV) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	values[key] = value
	return f.write(values)
}

func (f *FileKV) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.write(values)
}

func (f *FileKV) Close() error { return nil }

// read loads the whole object. A missing file is an empty medium.
func (f *FileKV) read() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, unavailable(errors.Wrap(err, "read storage file"))
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, unavailable(errors.Wrapf(err, "decode %s", f.path))
	}
	return values, nil
}

func (f *FileKV) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return unavailable(errors.Wrap(err, "encode storage file"))
	}
	if err := util.AtomicWriteFile(f.path, data, 0o600); err != nil {
		return unavailable(err)
	}
	return nil
}

// =============================================================================
// WATCHING
// =============================================================================

// Watch reports changes to key made by any process. The directory is
// watched rather than the file because atomic writes replace the inode.
func (f *FileKV) Watch(ctx context.Context, key string) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, unavailable(errors.Wrap(err, "create watcher"))
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return nil, unavailable(errors.Wrap(err, "watch storage directory"))
	}

	last, _ := f.Get(key)
	out := make(chan string, 1)

	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != f.path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				v, err := f.Get(key)
				if err != nil || v == last {
					continue
				}
				last = v
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Str("path", f.path).Msg("storage watcher error")
			}
		}
	}()

	return out, nil
}
