package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestNewDownloader(t *testing.T) {
	t.Run("default path", func(t *testing.T) {
		d := NewDownloader("")
		if d.binPath != "yt-dlp" {
			t.Errorf("expected default path 'yt-dlp', got %q", d.binPath)
		}
	})

	t.Run("custom path", func(t *testing.T) {
		d := NewDownloader("/usr/local/bin/yt-dlp")
		if d.binPath != "/usr/local/bin/yt-dlp" {
			t.Errorf("expected custom path, got %q", d.binPath)
		}
	})
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{name: "https", url: "https://www.youtube.com/watch?v=abc123"},
		{name: "http", url: "http://example.com/video"},
		{name: "empty", url: "", wantErr: ErrURLRequired},
		{name: "whitespace only", url: "   ", wantErr: ErrURLRequired},
		{name: "file scheme", url: "file:///etc/passwd", wantErr: ErrUnsupportedScheme},
		{name: "ftp scheme", url: "ftp://example.com/video.mp4", wantErr: ErrUnsupportedScheme},
		{name: "no scheme", url: "example.com/video", wantErr: ErrUnsupportedScheme},
		{name: "scheme without host", url: "https://", wantErr: ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateURL(%q) = %v, want nil", tt.url, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateURL(%q) = %v, want %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

// fakeYTDLP writes a shell script that mimics yt-dlp: it creates the file
// named after -o for downloads and prints a title for --print runs.
func fakeYTDLP(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binary script requires a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "yt-dlp")
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake yt-dlp: %v", err)
	}
	return path
}

func TestDownload_Success(t *testing.T) {
	script := `
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "--print" ]; then
    echo "Test Video Title"
    exit 0
  fi
  if [ "$prev" = "-o" ]; then
    out="$arg"
  fi
  prev="$arg"
done
printf 'fake video' > "$out"
`
	d := NewDownloader(fakeYTDLP(t, script))
	destDir := t.TempDir()

	res, err := d.Download(context.Background(), "https://example.com/watch?v=1", "", destDir, "clip-1")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	wantPath := filepath.Join(destDir, "clip-1.mp4")
	if res.Path != wantPath {
		t.Errorf("expected path %q, got %q", wantPath, res.Path)
	}
	if res.Title != "Test Video Title" {
		t.Errorf("expected probed title, got %q", res.Title)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestDownload_InvalidURL(t *testing.T) {
	d := NewDownloader("yt-dlp-missing-on-purpose")

	_, err := d.Download(context.Background(), "ftp://example.com/v", "", t.TempDir(), "clip")
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestDownload_CommandFailure(t *testing.T) {
	script := `
echo "ERROR: unsupported URL" >&2
exit 1
`
	d := NewDownloader(fakeYTDLP(t, script))

	_, err := d.Download(context.Background(), "https://example.com/broken", "", t.TempDir(), "clip")
	if !errors.Is(err, ErrExecution) {
		t.Fatalf("expected ErrExecution, got %v", err)
	}
	// stderr is surfaced in the error message
	if got := err.Error(); !strings.Contains(got, "unsupported URL") {
		t.Errorf("expected stderr in error, got %q", got)
	}
}

func TestDownload_MissingOutputFile(t *testing.T) {
	// Exits successfully but never writes the output file.
	d := NewDownloader(fakeYTDLP(t, "exit 0\n"))

	_, err := d.Download(context.Background(), "https://example.com/v", "", t.TempDir(), "clip")
	if !errors.Is(err, ErrExecution) {
		t.Errorf("expected ErrExecution for missing output, got %v", err)
	}
}

func TestDownload_TitleProbeFailureIsNotFatal(t *testing.T) {
	script := `
prev=""
out=""
for arg in "$@"; do
  if [ "$prev" = "--print" ]; then
    exit 1
  fi
  if [ "$prev" = "-o" ]; then
    out="$arg"
  fi
  prev="$arg"
done
printf 'fake video' > "$out"
`
	d := NewDownloader(fakeYTDLP(t, script))

	res, err := d.Download(context.Background(), "https://example.com/v", "", t.TempDir(), "clip")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if res.Title != "" {
		t.Errorf("expected empty title on probe failure, got %q", res.Title)
	}
}

func TestDownload_ContextCancellation(t *testing.T) {
	d := NewDownloader(fakeYTDLP(t, "sleep 5\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Download(ctx, "https://example.com/v", "", t.TempDir(), "clip")
	if err == nil {
		t.Error("expected error for cancelled context, got nil")
	}
}
