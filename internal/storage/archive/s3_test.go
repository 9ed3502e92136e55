package archive

import (
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestS3Storage_ImplementsStorage(t *testing.T) {
	var _ Storage = (*S3Storage)(nil)
}

func TestS3Storage_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "items.json", "items.json"},
		{"albionflip", "items.json", "albionflip/items.json"},
		{"albionflip/", "catalog/items.json", "albionflip/catalog/items.json"},
	}

	for _, tt := range tests {
		s := &S3Storage{prefix: strings.TrimSuffix(tt.prefix, "/")}
		got := s.key(tt.path)
		if got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
		if rel := s.relative(got); rel != tt.path {
			t.Errorf("relative(%q) = %q, want %q", got, rel, tt.path)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(&types.NoSuchKey{}) {
		t.Error("NoSuchKey should be not found")
	}
	if !isNotFound(&types.NotFound{}) {
		t.Error("NotFound should be not found")
	}
	if isNotFound(errors.New("access denied")) {
		t.Error("access denied should not be not found")
	}
}

func TestNewS3(t *testing.T) {
	s, err := NewS3(S3Config{Bucket: "cache", Region: "us-east-1", Endpoint: "http://localhost:9000", Prefix: "flip/"})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	if s.bucket != "cache" || s.prefix != "flip" {
		t.Errorf("unexpected bucket/prefix %q/%q", s.bucket, s.prefix)
	}
}
