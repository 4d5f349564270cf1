package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const cacheFileName = ".docstrip-cache.json"

type FileCache struct {
	ProcessedFiles map[string]time.Time `json:"processed_files"`

	root string
}

// openCache loads the cache stored at the root of the enclosing git
// repository.
func openCache() (*FileCache, error) {
	gitRoot, err := findGitRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find git repository root: %w", err)
	}

	return loadCache(gitRoot)
}

func loadCache(root string) (*FileCache, error) {
	cache := &FileCache{
		ProcessedFiles: make(map[string]time.Time),
		root:           root,
	}

	data, err := os.ReadFile(cache.path())
	if err != nil {
		// Missing cache file is not an error; initialize with empty cache
		if os.IsNotExist(err) {
			return cache, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	if cache.ProcessedFiles == nil {
		cache.ProcessedFiles = make(map[string]time.Time)
	}

	return cache, nil
}

func (c *FileCache) path() string {
	return filepath.Join(c.root, cacheFileName)
}

func (c *FileCache) save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.WriteFile(c.path(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// relativePath keys entries by their path under the repository root so the
// cache stays valid when the checkout moves.
func (c *FileCache) relativePath(absolutePath string) (string, error) {
	relPath, err := filepath.Rel(c.root, absolutePath)
	if err != nil {
		return "", fmt.Errorf("failed to make path relative: %w", err)
	}

	return filepath.ToSlash(relPath), nil
}

// shouldProcess reports whether the file was modified after it was last
// stripped.
func (c *FileCache) shouldProcess(filePath string) (bool, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}

	relPath, err := c.relativePath(filePath)
	if err != nil {
		return false, err
	}

	lastProcessed, exists := c.ProcessedFiles[relPath]
	if !exists {
		return true, nil
	}

	return info.ModTime().After(lastProcessed), nil
}

// markProcessed records the file's modification time, not the current time,
// so a touch without a content change still counts as a change.
func (c *FileCache) markProcessed(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	relPath, err := c.relativePath(filePath)
	if err != nil {
		return err
	}

	c.ProcessedFiles[relPath] = info.ModTime()
	return nil
}
