/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const fileExt = ".json"

// FileBackend stores every key as <Dir>/<key>.json. Writes go to a temp file in the
// same directory which is synced and renamed over the target, so a crash mid-write
// leaves the previous value intact.
type FileBackend struct {
	Dir   string
	Quota int64 // 0 = unlimited
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string, quota int64) (*FileBackend, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("data dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{Dir: dir, Quota: quota}, nil
}

// PathFor returns the file that holds key.
func (f *FileBackend) PathFor(key string) string {
	return filepath.Join(f.Dir, url.PathEscape(key)+fileExt)
}

func (f *FileBackend) Get(key string) ([]byte, bool, error) {
	b, err := os.ReadFile(f.PathFor(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return b, true, nil
}

func (f *FileBackend) Set(key string, value []byte) error {
	target := f.PathFor(key)
	if f.Quota > 0 {
		used, err := f.usedExcept(target)
		if err != nil {
			return err
		}
		if used+int64(len(value)) > f.Quota {
			return fmt.Errorf("write %s (%d bytes, %d used of %d): %w", key, len(value), used, f.Quota, ErrQuotaExceeded)
		}
	}
	temp := filepath.Join(f.Dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(target), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, value); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp %s: %w", key, err)
	}
	if err := os.Rename(temp, target); err != nil {
		// Windows refuses to rename over an existing file
		if _, statErr := os.Stat(target); statErr == nil {
			_ = os.Remove(target)
			err = os.Rename(temp, target)
		}
		if err != nil {
			_ = os.Remove(temp)
			return fmt.Errorf("replace %s: %w", key, err)
		}
	}
	return nil
}

func (f *FileBackend) Remove(key string) error {
	if err := os.Remove(f.PathFor(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (f *FileBackend) Keys() ([]string, error) {
	ents, err := os.ReadDir(f.Dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var keys []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		k, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileBackend) usedExcept(target string) (int64, error) {
	ents, err := os.ReadDir(f.Dir)
	if err != nil {
		return 0, fmt.Errorf("read data dir: %w", err)
	}
	var used int64
	for _, e := range ents {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		if filepath.Join(f.Dir, e.Name()) == target {
			continue
		}
		if info, err := e.Info(); err == nil {
			used += info.Size()
		}
	}
	return used, nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
