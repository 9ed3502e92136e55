// Package archive stores raw provider payloads, such as the item catalog dump,
// so repeated runs can skip the download.
package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/newthinker/albionflip/internal/core"
)

// Storage is a blob store keyed by slash-separated paths
type Storage interface {
	// Write stores data at path, replacing any previous payload
	Write(ctx context.Context, path string, data []byte) error

	// Read returns the payload at path, or core.ErrArchiveMiss
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the payload at path
	Delete(ctx context.Context, path string) error

	// Exists reports whether a payload is stored at path
	Exists(ctx context.Context, path string) (bool, error)
}

// Backend types
const (
	TypeNone    = ""
	TypeLocalFS = "localfs"
	TypeS3      = "s3"
)

// Config selects and configures a backend
type Config struct {
	Type string
	Path string
	S3   S3Config
}

// New opens the configured backend. TypeNone returns a nil Storage.
func New(cfg Config) (Storage, error) {
	switch strings.ToLower(cfg.Type) {
	case TypeNone, "none":
		return nil, nil
	case TypeLocalFS:
		if cfg.Path == "" {
			return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive path required for localfs"))
		}
		l, err := NewLocalFS(cfg.Path)
		if err != nil {
			return nil, err
		}
		return l, nil
	case TypeS3:
		if cfg.S3.Bucket == "" {
			return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive bucket required for s3"))
		}
		s, err := NewS3(cfg.S3)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive type %q", cfg.Type))
	}
}
