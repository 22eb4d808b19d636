// Package artifact stores debug captures (screenshots, HTML snapshots) taken when scraping goes wrong.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"otasync/internal/config"
	"otasync/internal/telemetry"

	"github.com/rs/zerolog/log"
)

const (
	ContentTypePNG  = "image/png"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// Sink persists a named capture and returns where it went.
type Sink interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// Dir writes captures to a local directory.
type Dir struct {
	Root string
}

func (d Dir) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact dir: %w", err)
	}

	path := filepath.Join(d.Root, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	return path, nil
}

// Discard drops every capture.
type Discard struct{}

func (Discard) Save(context.Context, string, string, []byte) (string, error) { return "", nil }

// New picks the S3 sink when a bucket is configured, the local directory otherwise.
func New(cfg *config.Config, otl telemetry.Otel) Sink {
	if cfg.External.S3.BucketName != "" {
		s, err := NewS3(cfg, otl)
		if err == nil {
			return s
		}
		log.Warn().Err(err).Msg("failed to set up S3 artifact sink, using local directory")
	}

	if cfg.Stayflexi.ArtifactDir == "" {
		return Discard{}
	}

	return Dir{Root: cfg.Stayflexi.ArtifactDir}
}
