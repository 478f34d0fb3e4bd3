// Package artifacts stores the screenshots and traces produced by test attempts.
// A local directory sink is always available; an S3 sink is added when a bucket
// is configured.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kuitang/internet-e2e/internal/config"
	"github.com/kuitang/internet-e2e/internal/obs"
)

const (
	ContentTypePNG = "image/png"
	ContentTypeZip = "application/zip"
)

// ErrNotFound is returned when a requested artifact does not exist.
var ErrNotFound = errors.New("artifacts: not found")

// Sink stores artifact bytes under a slash-separated key and returns where
// they ended up.
type Sink interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

var unsafeSegment = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Key builds the storage key for one attempt's artifact:
// <run>/<test>/<browser>/attempt-<n>/<name>. Every element is reduced to a
// single safe path segment.
func Key(runID, test, browser string, attempt int, name string) string {
	return path.Join(
		segment(runID),
		segment(test),
		segment(browser),
		"attempt-"+strconv.Itoa(attempt),
		segment(name),
	)
}

func segment(s string) string {
	s = unsafeSegment.ReplaceAllString(strings.TrimSpace(s), "-")
	s = strings.Trim(s, "-.")
	if s == "" {
		return "_"
	}
	return s
}

// ContentTypeFor guesses the content type from the artifact file name.
func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return ContentTypePNG
	case ".zip":
		return ContentTypeZip
	}
	return "application/octet-stream"
}

// DirSink writes artifacts below a local root directory.
type DirSink struct {
	root string
}

func NewDirSink(root string) *DirSink {
	return &DirSink{root: root}
}

func (s *DirSink) Root() string {
	return s.root
}

// Put writes data to <root>/<key>, creating parent directories.
func (s *DirSink) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("artifacts: empty key")
	}
	target := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("artifacts: create directory for %q: %w", key, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("artifacts: write %q: %w", key, err)
	}
	return target, nil
}

// Get reads back an artifact previously written with Put.
func (s *DirSink) Get(key string) ([]byte, error) {
	clean := strings.TrimPrefix(path.Clean("/"+key), "/")
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(clean)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Tee writes to every sink in order. It stops at the first failure and
// returns the location reported by the first sink.
type Tee []Sink

func (t Tee) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	var first string
	for i, sink := range t {
		loc, err := sink.Put(ctx, key, data, contentType)
		if err != nil {
			return first, err
		}
		if i == 0 {
			first = loc
		}
	}
	return first, nil
}

// NewSink builds the sink described by cfg: the directory sink, teed into an
// S3 sink when a bucket is set.
func NewSink(ctx context.Context, cfg config.Artifacts) (Sink, error) {
	dir := NewDirSink(cfg.Dir)
	if cfg.Bucket == "" {
		return dir, nil
	}
	s3Sink, err := NewS3Sink(ctx, S3Config{
		Endpoint:        cfg.Endpoint,
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		Bucket:          cfg.Bucket,
		UsePathStyle:    cfg.Endpoint != "",
	})
	if err != nil {
		return nil, err
	}
	obs.Pkg("artifacts").Info("artifact_sink_configured",
		"dir", cfg.Dir,
		"bucket", cfg.Bucket,
		"endpoint", cfg.Endpoint,
	)
	return Tee{dir, s3Sink}, nil
}
