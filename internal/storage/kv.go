// Package storage is the durable key-value slot backing the task store:
// one JSON file per key under a data directory, synchronous reads and
// writes, and a byte quota that rejects oversized writes the way a
// per-origin browser store would.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var ErrQuotaExceeded = errors.New("storage quota exceeded")

// DefaultQuota matches the ballpark of a browser origin store.
const DefaultQuota = 5 * 1024 * 1024

type FileKV struct {
	mu    sync.RWMutex
	dir   string
	quota int64
	sizes map[string]int64
}

// NewFileKV opens (creating if needed) the slot directory and indexes the
// sizes of existing values so the quota covers the whole slot, not just new
// writes. quota <= 0 means DefaultQuota.
func NewFileKV(dir string, quota int64) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if quota <= 0 {
		quota = DefaultQuota
	}
	kv := &FileKV{
		dir:   dir,
		quota: quota,
		sizes: map[string]int64{},
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		kv.sizes[strings.TrimSuffix(e.Name(), ".json")] = info.Size()
	}
	return kv, nil
}

func (kv *FileKV) path(key string) string {
	return filepath.Join(kv.dir, key+".json")
}

// Get returns the stored value and whether the key exists.
func (kv *FileKV) Get(key string) ([]byte, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	b, err := os.ReadFile(kv.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

// Set writes the value for key, rejecting with ErrQuotaExceeded when the
// slot's total size would pass the quota. A rejected write leaves the prior
// value untouched.
func (kv *FileKV) Set(key string, val []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	total := int64(len(val))
	for k, sz := range kv.sizes {
		if k == key {
			continue
		}
		total += sz
	}
	if total > kv.quota {
		return fmt.Errorf("%w: key %q needs %d bytes, quota %d", ErrQuotaExceeded, key, total, kv.quota)
	}

	if err := os.WriteFile(kv.path(key), val, 0o644); err != nil {
		return err
	}
	kv.sizes[key] = int64(len(val))
	return nil
}

// Delete removes the key; absent keys are a no-op.
func (kv *FileKV) Delete(key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if err := os.Remove(kv.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	delete(kv.sizes, key)
	return nil
}
