// Package wordlist loads dictionary files for the recovery strategies.
// Sources can be local paths or URLs; remote wordlists are fetched into the
// data directory once and reused on later runs.
package wordlist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/duke-git/lancet/v2/fileutil"
	getter "github.com/hashicorp/go-getter"

	"github.com/avalontools/avalonctl/lib/progress"
	"github.com/avalontools/avalonctl/shared"
)

// ErrNotFound indicates a wordlist path that does not exist or cannot be read.
var ErrNotFound = errors.New("wordlist not found")

// scannerBufSize matches the dictionary stream's read buffer.
const scannerBufSize = 2 * 1024 * 1024

// Resolve turns a wordlist source into a readable local path. Remote URLs
// are downloaded into the data directory, skipping the fetch when the file
// is already present. Local paths are validated for existence.
func Resolve(ctx context.Context, source string) (string, error) {
	if isRemote(source) {
		return fetch(ctx, source)
	}

	if !fileutil.IsExist(source) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, source)
	}

	return source, nil
}

// isRemote reports whether the source looks like a fetchable URL rather
// than a filesystem path.
func isRemote(source string) bool {
	parsed, err := url.Parse(source)
	if err != nil {
		return false
	}

	switch parsed.Scheme {
	case "http", "https", "s3":
		return parsed.Host != ""
	default:
		return false
	}
}

// fetch downloads a remote wordlist into the data directory with a progress
// bar, reusing a previous download when present.
func fetch(ctx context.Context, source string) (string, error) {
	parsed, err := url.Parse(source)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, source)
	}

	dst := filepath.Join(shared.State.DataPath, "wordlists", filepath.Base(parsed.Path))
	if fileutil.IsExist(dst) {
		shared.Logger.Info("Using previously downloaded wordlist", "path", dst)

		return dst, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return "", fmt.Errorf("creating wordlist directory: %w", err)
	}

	shared.Logger.Info("Downloading wordlist", "url", source, "path", dst)

	client := &getter.Client{
		Ctx:  ctx,
		Dst:  dst,
		Src:  source,
		Mode: getter.ClientModeFile,
	}

	if err := client.Configure(getter.WithProgress(progress.DefaultProgressBar)); err != nil {
		return "", fmt.Errorf("configuring wordlist download: %w", err)
	}

	if err := client.Get(); err != nil {
		return "", fmt.Errorf("downloading wordlist %s: %w", source, err)
	}

	return dst, nil
}

// Load reads every non-empty trimmed line of a wordlist into memory, in file
// order. Used by the hybrid strategy, which needs random access to words.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	var words []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, scannerBufSize), scannerBufSize)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" {
			words = append(words, word)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading wordlist %s: %w", path, err)
	}

	return words, nil
}

// Count returns the number of non-empty lines without keeping them.
func Count(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	var count uint64

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, scannerBufSize), scannerBufSize)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			count++
		}
	}

	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading wordlist %s: %w", path, err)
	}

	return count, nil
}

// Open returns the wordlist file for streaming. The caller closes it.
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	return f, nil
}
