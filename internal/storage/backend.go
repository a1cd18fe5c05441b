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
	"sort"
	"sync"
)

var (
	// ErrQuotaExceeded is returned (wrapped) by a Backend when a write would exceed its size budget.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrNotFound is returned when an addressed record does not exist.
	ErrNotFound = errors.New("not found")
)

// Backend is a flat key/value blob store.
// Get reports ok=false for a missing key; that is not an error.
type Backend interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Remove(key string) error
	Keys() ([]string, error)
}

// MemoryBackend keeps everything in process memory. A positive Quota bounds the
// sum of all value sizes.
type MemoryBackend struct {
	mu    sync.Mutex
	data  map[string][]byte
	Quota int64
}

func NewMemoryBackend(quota int64) *MemoryBackend {
	return &MemoryBackend{data: map[string][]byte{}, Quota: quota}
}

func (m *MemoryBackend) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryBackend) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Quota > 0 {
		var used int64
		for k, v := range m.data {
			if k != key {
				used += int64(len(v))
			}
		}
		if used+int64(len(value)) > m.Quota {
			return fmt.Errorf("set %s (%d bytes, %d used of %d): %w", key, len(value), used, m.Quota, ErrQuotaExceeded)
		}
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryBackend) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryBackend) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
