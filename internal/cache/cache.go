// Package cache stores analysis responses on disk so repeated questions about
// the same dataset do not hit the model twice.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kyleking/chart-intent/internal/config"
)

// ErrMiss is returned when a key is absent or expired
var ErrMiss = errors.New("cache miss")

const (
	dataExt = ".data"
	metaExt = ".meta"
)

// Cache defines the interface for local file caching operations
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int64, error)
	Cleanup(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
}

// Entry is the metadata stored beside each cached payload
type Entry struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Size      int64     `json:"size"`
}

// Stats represents cache statistics
type Stats struct {
	TotalEntries int64   `json:"total_entries"`
	TotalSize    int64   `json:"total_size"`
	HitRate      float64 `json:"hit_rate"`
	MissRate     float64 `json:"miss_rate"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	Evictions    int64   `json:"evictions"`
}

// FileCache implements the Cache interface using the filesystem
type FileCache struct {
	directory   string
	maxBytes    int64
	defaultTTL  time.Duration
	cleanupFreq time.Duration
	mu          sync.RWMutex

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

// NewFileCache creates a new file-based cache. A zero cleanupFreq disables
// background cleanup.
func NewFileCache(directory string, maxSizeMB int, defaultTTL, cleanupFreq time.Duration) (*FileCache, error) {
	directory = config.ExpandPath(directory)

	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &FileCache{
		directory:   directory,
		maxBytes:    int64(maxSizeMB) * 1024 * 1024,
		defaultTTL:  defaultTTL,
		cleanupFreq: cleanupFreq,
		stopCleanup: make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go c.backgroundCleanup()
	}

	return c, nil
}

// NewFromConfig builds a FileCache from the cache section of the configuration
func NewFromConfig(cfg config.CacheConfig) (*FileCache, error) {
	cleanup, err := time.ParseDuration(cfg.CleanupFreq)
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup frequency %q: %w", cfg.CleanupFreq, err)
	}

	return NewFileCache(cfg.Directory, cfg.MaxSizeMB, time.Duration(cfg.TTLHours)*time.Hour, cleanup)
}

// Get retrieves data from cache
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	entry, err := c.readEntry(key)
	if err == nil && time.Now().After(entry.ExpiresAt) {
		err = ErrMiss
	}

	var data []byte
	if err == nil {
		data, err = os.ReadFile(c.dataPath(key))
	}
	c.mu.RUnlock()

	if err != nil {
		c.misses.Add(1)

		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrMiss) {
			return nil, ErrMiss
		}

		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	c.hits.Add(1)

	return data, nil
}

func (c *FileCache) readEntry(key string) (Entry, error) {
	var entry Entry

	meta, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		return entry, err
	}

	if err := json.Unmarshal(meta, &entry); err != nil {
		return entry, fmt.Errorf("failed to parse cache metadata: %w", err)
	}

	return entry, nil
}

// Set stores data in cache with TTL; a zero ttl uses the cache default
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	now := time.Now()
	entry := Entry{
		Key:       key,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Size:      int64(len(data)),
	}

	meta, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache metadata: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enforceSize(entry.Size); err != nil {
		return fmt.Errorf("failed to enforce cache size: %w", err)
	}

	dataPath := c.dataPath(key)
	if err := os.WriteFile(dataPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write cache data: %w", err)
	}

	if err := os.WriteFile(c.metaPath(key), meta, 0600); err != nil {
		_ = os.Remove(dataPath)
		return fmt.Errorf("failed to write cache metadata: %w", err)
	}

	return nil
}

// Delete removes an entry from cache
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(c.hashKey(key))

	return nil
}

// Clear removes all entries from cache and resets statistics
func (c *FileCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.directory)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && (strings.HasSuffix(name, dataExt) || strings.HasSuffix(name, metaExt)) {
			_ = os.Remove(filepath.Join(c.directory, name))
		}
	}

	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)

	return nil
}

// Size returns the total size of cached data
func (c *FileCache) Size(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.calculateSize()
}

// Cleanup removes expired entries
func (c *FileCache) Cleanup(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	entries, err := os.ReadDir(c.directory)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), metaExt) {
			continue
		}

		meta, err := os.ReadFile(filepath.Join(c.directory, entry.Name()))
		if err != nil {
			continue
		}

		var e Entry
		if err := json.Unmarshal(meta, &e); err != nil {
			continue
		}

		if now.After(e.ExpiresAt) {
			c.remove(strings.TrimSuffix(entry.Name(), metaExt))
		}
	}

	return nil
}

// GetStats returns cache statistics
func (c *FileCache) GetStats(ctx context.Context) (*Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	totalSize, err := c.calculateSize()
	totalEntries := c.countEntries()
	c.mu.RUnlock()

	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalEntries: totalEntries,
		TotalSize:    totalSize,
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Evictions:    c.evictions.Load(),
	}

	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
		stats.MissRate = float64(stats.Misses) / float64(total)
	}

	return stats, nil
}

// Close stops the background cleanup goroutine
func (c *FileCache) Close() error {
	c.cleanupOnce.Do(func() {
		close(c.stopCleanup)
	})

	return nil
}

func (c *FileCache) dataPath(key string) string {
	return filepath.Join(c.directory, c.hashKey(key)+dataExt)
}

func (c *FileCache) metaPath(key string) string {
	return filepath.Join(c.directory, c.hashKey(key)+metaExt)
}

// hashKey creates a safe filename from a cache key
func (c *FileCache) hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:32]
}

// remove deletes both files of an entry; caller holds the write lock
func (c *FileCache) remove(hash string) {
	_ = os.Remove(filepath.Join(c.directory, hash+dataExt))
	_ = os.Remove(filepath.Join(c.directory, hash+metaExt))
}

// enforceSize evicts the oldest entries until newEntrySize fits; caller holds the write lock
func (c *FileCache) enforceSize(newEntrySize int64) error {
	if c.maxBytes <= 0 {
		return nil
	}

	if newEntrySize > c.maxBytes {
		return fmt.Errorf("entry of %d bytes exceeds cache limit of %d bytes", newEntrySize, c.maxBytes)
	}

	currentSize, err := c.calculateSize()
	if err != nil {
		return err
	}

	if currentSize+newEntrySize <= c.maxBytes {
		return nil
	}

	entries, err := os.ReadDir(c.directory)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	type entryInfo struct {
		hash    string
		modTime time.Time
		size    int64
	}

	var infos []entryInfo

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), dataExt) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		infos = append(infos, entryInfo{
			hash:    strings.TrimSuffix(entry.Name(), dataExt),
			modTime: info.ModTime(),
			size:    info.Size(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].modTime.Before(infos[j].modTime)
	})

	spaceNeeded := currentSize + newEntrySize - c.maxBytes

	var spaceFreed int64

	for _, info := range infos {
		if spaceFreed >= spaceNeeded {
			break
		}

		c.remove(info.hash)
		c.evictions.Add(1)

		spaceFreed += info.size
	}

	return nil
}

// calculateSize sums payload sizes; caller holds a lock
func (c *FileCache) calculateSize() (int64, error) {
	var totalSize int64

	err := filepath.WalkDir(c.directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && strings.HasSuffix(path, dataExt) {
			info, err := d.Info()
			if err != nil {
				return err
			}

			totalSize += info.Size()
		}

		return nil
	})

	return totalSize, err
}

func (c *FileCache) countEntries() int64 {
	entries, err := os.ReadDir(c.directory)
	if err != nil {
		return 0
	}

	var n int64

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), dataExt) {
			n++
		}
	}

	return n
}

// backgroundCleanup runs periodic cleanup of expired entries
func (c *FileCache) backgroundCleanup() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.Cleanup(context.Background())
		case <-c.stopCleanup:
			return
		}
	}
}

// GetJSON decodes a cached JSON value into v
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

// SetJSON encodes v as JSON and caches it
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	return c.Set(ctx, key, data, ttl)
}
