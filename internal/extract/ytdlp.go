// Package extract downloads videos from social platforms by wrapping the
// yt-dlp command line tool.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Static errors for extraction operations.
var (
	// ErrURLRequired is returned when no source URL is provided.
	ErrURLRequired = errors.New("extract: source URL is required")
	// ErrUnsupportedScheme is returned for non-http(s) URLs.
	ErrUnsupportedScheme = errors.New("extract: only http and https URLs are supported")
	// ErrExecution is returned when the yt-dlp command fails.
	ErrExecution = errors.New("extract: yt-dlp execution failed")
)

// Result describes a completed download.
type Result struct {
	// Path is the local path of the downloaded file.
	Path string
	// Title is the source video title as reported by yt-dlp.
	Title string
}

// Downloader wraps the yt-dlp CLI.
type Downloader struct {
	// binPath is the path to the yt-dlp binary. Defaults to "yt-dlp".
	binPath string
}

// NewDownloader creates a Downloader. If binPath is empty, "yt-dlp" is
// resolved via PATH.
func NewDownloader(binPath string) *Downloader {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Downloader{binPath: binPath}
}

// ValidateURL checks that rawURL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrURLRequired
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("extract: parse URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrUnsupportedScheme)
	}
	return nil
}

// Download fetches the video at rawURL into destDir under the given base
// name. format is a yt-dlp format selector; empty means mp4.
func (d *Downloader) Download(ctx context.Context, rawURL, format, destDir, baseName string) (Result, error) {
	if err := ValidateURL(rawURL); err != nil {
		return Result{}, err
	}
	if format == "" {
		format = "mp4"
	}

	outPath := filepath.Join(destDir, baseName+".mp4")

	args := []string{
		"--no-playlist",
		"--no-progress",
		"-f", format,
		"--recode-video", "mp4",
		"-o", outPath,
		rawURL,
	}

	if err := d.run(ctx, args); err != nil {
		return Result{}, err
	}

	if _, err := os.Stat(outPath); err != nil {
		return Result{}, fmt.Errorf("%w: output file missing: %v", ErrExecution, err)
	}

	title, err := d.probeTitle(ctx, rawURL)
	if err != nil {
		// The download succeeded; a missing title is not fatal.
		title = ""
	}

	return Result{Path: outPath, Title: title}, nil
}

// probeTitle asks yt-dlp for the video title without downloading.
func (d *Downloader) probeTitle(ctx context.Context, rawURL string) (string, error) {
	cmd := exec.CommandContext(ctx, d.binPath, "--no-playlist", "--print", "title", "--skip-download", rawURL) // #nosec G204 - binPath is operator-configured
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExecution, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// run executes yt-dlp with stderr captured into the returned error.
func (d *Downloader) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, d.binPath, args...) // #nosec G204 - binPath is operator-configured
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("%w: %s", ErrExecution, msg)
	}
	return nil
}
