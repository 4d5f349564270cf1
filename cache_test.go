package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCacheMissingFile(t *testing.T) {
	root := t.TempDir()

	cache, err := loadCache(root)
	if err != nil {
		t.Fatalf("loadCache() error = %v", err)
	}
	if len(cache.ProcessedFiles) != 0 {
		t.Errorf("loadCache() returned %d entries, want 0", len(cache.ProcessedFiles))
	}
}

func TestLoadCacheCorrupt(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, cacheFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	if _, err := loadCache(root); err == nil {
		t.Errorf("loadCache() error = nil, want parse error")
	}
}

func TestFileCacheSaveLoad(t *testing.T) {
	root := t.TempDir()

	// Truncate to second precision to compare with Equal below
	cache := &FileCache{
		ProcessedFiles: map[string]time.Time{
			"Main.java":          time.Now().Add(-1 * time.Hour).Truncate(time.Second),
			"src/util/Util.java": time.Now().Add(-30 * time.Minute).Truncate(time.Second),
		},
		root: root,
	}

	if err := cache.save(); err != nil {
		t.Fatalf("save() error = %v", err)
	}

	loaded, err := loadCache(root)
	if err != nil {
		t.Fatalf("loadCache() error = %v", err)
	}

	if len(loaded.ProcessedFiles) != len(cache.ProcessedFiles) {
		t.Errorf("loaded cache has %d files, want %d", len(loaded.ProcessedFiles), len(cache.ProcessedFiles))
	}
	for path, ts := range cache.ProcessedFiles {
		got, exists := loaded.ProcessedFiles[path]
		if !exists {
			t.Errorf("loaded cache missing file: %s", path)
			continue
		}
		if !got.Equal(ts) {
			t.Errorf("loaded %s = %v, want %v", path, got, ts)
		}
	}
}

func TestFileCacheMarkProcessed(t *testing.T) {
	root := t.TempDir()
	testFile := filepath.Join(root, "src", "Main.java")
	writeFile(t, testFile, "class Main {}\n")

	cache := &FileCache{ProcessedFiles: make(map[string]time.Time), root: root}
	if err := cache.markProcessed(testFile); err != nil {
		t.Fatalf("markProcessed() error = %v", err)
	}

	// Keys are slash-separated and relative to the repository root
	if _, exists := cache.ProcessedFiles["src/Main.java"]; !exists {
		t.Errorf("markProcessed() did not store file with relative path 'src/Main.java'")
		t.Logf("cache contents: %+v", cache.ProcessedFiles)
	}
}

func TestFileCacheShouldProcess(t *testing.T) {
	root := t.TempDir()
	testFile := filepath.Join(root, "Main.java")
	writeFile(t, testFile, "class Main {}\n")

	tests := []struct {
		name           string
		processedFiles map[string]time.Time
		expectedResult bool
	}{
		{
			name:           "file not in cache - should process",
			processedFiles: map[string]time.Time{},
			expectedResult: true,
		},
		{
			name:           "file in cache with old timestamp - should process",
			processedFiles: map[string]time.Time{"Main.java": time.Now().Add(-24 * time.Hour)},
			expectedResult: true,
		},
		{
			name:           "file in cache with future timestamp - should not process",
			processedFiles: map[string]time.Time{"Main.java": time.Now().Add(24 * time.Hour)},
			expectedResult: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &FileCache{ProcessedFiles: tt.processedFiles, root: root}
			result, err := cache.shouldProcess(testFile)
			if err != nil {
				t.Errorf("shouldProcess() error = %v", err)
				return
			}
			if result != tt.expectedResult {
				t.Errorf("shouldProcess() = %v, want %v", result, tt.expectedResult)
			}
		})
	}
}

func TestFileCacheShouldProcessMissingFile(t *testing.T) {
	root := t.TempDir()
	cache := &FileCache{ProcessedFiles: map[string]time.Time{}, root: root}

	if _, err := cache.shouldProcess(filepath.Join(root, "Gone.java")); err == nil {
		t.Errorf("shouldProcess() error = nil, want stat error")
	}
}

func TestCacheJSONFormat(t *testing.T) {
	cache := &FileCache{
		ProcessedFiles: map[string]time.Time{
			"Main.java": time.Date(2025, 10, 10, 10, 30, 0, 0, time.UTC),
		},
		root: "/somewhere/private",
	}

	data, err := json.Marshal(cache)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	want := `{"processed_files":{"Main.java":"2025-10-10T10:30:00Z"}}`
	if string(data) != want {
		t.Errorf("json.Marshal() = %s, want %s", data, want)
	}
}
