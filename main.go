package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"
)

type Config struct {
	Files          []string
	WorkDir        string
	BatchSize      int
	ForceProcess   bool
	Check          bool
	UseCache       bool
	SkipGitIgnored bool
	Extensions     []string
	Exclude        []string
	ReportPath     string
}

// ErrUnsupportedFileType is returned when a file's extension is not in the configured list
type ErrUnsupportedFileType struct {
	Extension string
}

func (e *ErrUnsupportedFileType) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Extension)
}

// ErrInvalidEncoding is returned for files that are not valid UTF-8. Such
// files are never rewritten.
type ErrInvalidEncoding struct {
	Path string
}

func (e *ErrInvalidEncoding) Error() string {
	return fmt.Sprintf("%s is not valid UTF-8", e.Path)
}

var errNoFiles = errors.New("no files provided (use -staged or pass file paths as arguments)")

const defaultBatchSize = 24

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  docstrip [flags] <file|glob> [<file|glob> ...]")
	fmt.Fprintln(os.Stderr, "  docstrip -staged [flags]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Removes // and /* */ comments, keeps /** */ documentation comments.")
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	configPath := flag.String("config", "", "YAML config file (default "+defaultConfigFileName+" when present)")
	batchSize := flag.Int("batch-size", defaultBatchSize, "Number of files to strip in parallel per batch")
	forceProcess := flag.Bool("force", false, "Ignore the cache and strip every file")
	check := flag.Bool("check", false, "Report files that would change without writing them")
	staged := flag.Bool("staged", false, "Process only staged files from git")
	reportPath := flag.String("report", "", "Write a JSON run report to this path")

	flag.Parse()

	// Usage errors must be caught before any file is touched, config included
	if err := checkFileArgs(*staged, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	fileConfig, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if explicit["batch-size"] {
		fileConfig.BatchSize = *batchSize
	}
	if explicit["report"] {
		fileConfig.Report = *reportPath
	}
	if fileConfig.BatchSize < 1 {
		fmt.Fprintln(os.Stderr, "Error: -batch-size must be at least 1")
		os.Exit(1)
	}

	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to get working directory: %v\n", err)
		os.Exit(1)
	}

	var files []string
	if *staged {
		files, err = getStagedFiles()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Found %d staged file(s)\n", len(files))
	} else {
		files, err = expandFileArgs(flag.Args())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	config := Config{
		Files:          files,
		WorkDir:        workDir,
		BatchSize:      fileConfig.BatchSize,
		ForceProcess:   *forceProcess,
		Check:          *check,
		UseCache:       fileConfig.Cache,
		SkipGitIgnored: fileConfig.SkipGitIgnored,
		Extensions:     fileConfig.Extensions,
		Exclude:        fileConfig.Exclude,
		ReportPath:     fileConfig.Report,
	}

	report, err := run(config, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if config.Check && report.count(statusWouldChange) > 0 {
		os.Exit(1)
	}
}

// checkFileArgs rejects a command line that names no files. -staged supplies
// its own list.
func checkFileArgs(staged bool, args []string) error {
	if staged || len(args) > 0 {
		return nil
	}
	return errNoFiles
}

func run(config Config, stdout, stderr io.Writer) (*RunReport, error) {
	report, err := newRunReport(config.Check)
	if err != nil {
		return nil, fmt.Errorf("failed to create run id: %w", err)
	}

	var cache *FileCache
	// Check mode never writes, so there is nothing to record
	if config.UseCache && !config.Check {
		cache, err = openCache()
		if err != nil {
			fmt.Fprintf(stderr, "Warning: cache disabled: %v\n", err)
			cache = nil
		}
	}

	results := make([]FileResult, len(config.Files))
	pending := make([]int, 0, len(config.Files))

	// Cheap filters run before any file is read
	for i, file := range config.Files {
		results[i] = FileResult{Path: file}

		if pattern, ok := matchExclude(config.Exclude, config.WorkDir, file); ok {
			results[i].skip("excluded by " + pattern)
			continue
		}

		if config.SkipGitIgnored && isGitIgnored(file) {
			results[i].skip("gitignored")
			continue
		}

		if cache != nil && !config.ForceProcess {
			shouldProcess, err := cache.shouldProcess(file)
			if err != nil {
				// Fall back to processing; stripping twice is harmless
				fmt.Fprintf(stderr, "Warning: failed to check cache for %s: %v\n", file, err)
				shouldProcess = true
			}
			if !shouldProcess {
				results[i].Status = statusUnchanged
				continue
			}
		}

		pending = append(pending, i)
	}

	processBatches(config, pending, results, cache, stderr)

	for _, result := range results {
		fmt.Fprintln(stdout, result.statusLine())
	}
	report.finish(results)

	if config.Check {
		fmt.Fprintf(stdout, "\n%d/%d files already clean\n", report.Succeeded, report.Attempted)
	} else {
		fmt.Fprintf(stdout, "\nCleaned %d/%d files\n", report.Succeeded, report.Attempted)
	}

	if config.ReportPath != "" {
		if err := report.save(config.ReportPath); err != nil {
			return report, fmt.Errorf("failed to save report: %w", err)
		}
	}

	return report, nil
}

func processBatches(config Config, pending []int, results []FileResult, cache *FileCache, stderr io.Writer) {
	for i := 0; i < len(pending); i += config.BatchSize {
		end := min(i+config.BatchSize, len(pending))
		batch := pending[i:end]

		processBatch(config, batch, results)

		if cache == nil {
			continue
		}

		// Cache updates happen after each batch so an interrupted run keeps
		// the work already done
		for _, idx := range batch {
			if !results[idx].succeeded() {
				continue
			}
			if err := cache.markProcessed(results[idx].Path); err != nil {
				fmt.Fprintf(stderr, "Warning: failed to update cache for %s: %v\n", results[idx].Path, err)
			}
		}

		if err := cache.save(); err != nil {
			fmt.Fprintf(stderr, "Warning: failed to save cache: %v\n", err)
		}
	}
}

// processBatch strips every file of the batch in parallel and waits for all of
// them. Each goroutine writes only its own slot of results.
func processBatch(config Config, batch []int, results []FileResult) {
	var wg sync.WaitGroup

	for _, idx := range batch {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			changed, err := processFile(results[i].Path, config.Extensions, !config.Check)
			results[i].record(changed, err, config.Check)
		}(idx)
	}

	wg.Wait()
}

// processFile strips one file in place and reports whether its content
// changed. With write unset the file is only read.
func processFile(inputPath string, extensions []string, write bool) (bool, error) {
	if len(extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(inputPath))
		if !slices.Contains(extensions, ext) {
			return false, &ErrUnsupportedFileType{Extension: ext}
		}
	}

	content, err := os.ReadFile(inputPath)
	if err != nil {
		return false, fmt.Errorf("failed to read file: %w", err)
	}

	if !utf8.Valid(content) {
		return false, &ErrInvalidEncoding{Path: inputPath}
	}

	cleaned := removeNonDocComments(string(content))
	if cleaned == string(content) {
		return false, nil
	}

	if !write {
		return true, nil
	}

	// Written in place; a failure here can leave the file partially written
	if err := os.WriteFile(inputPath, []byte(cleaned), 0o644); err != nil {
		return false, fmt.Errorf("failed to write file: %w", err)
	}

	return true, nil
}

func isUnsupported(err error) bool {
	var unsupportedErr *ErrUnsupportedFileType
	return errors.As(err, &unsupportedErr)
}
