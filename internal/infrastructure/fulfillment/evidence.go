package fulfillment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EvidenceStore persists purchase evidence (screenshots of the supplier
// confirmation or failure page) and returns a stable reference to it.
type EvidenceStore interface {
	Save(ctx context.Context, orderID, label string, data []byte) (string, error)
}

// evidenceKey builds a stable object key for an evidence artifact
func evidenceKey(orderID, label string, now time.Time) string {
	label = strings.ReplaceAll(strings.ToLower(label), " ", "_")
	return fmt.Sprintf("evidence/%s/%s_%d.png", orderID, label, now.Unix())
}

// LocalEvidenceStore writes evidence to a local directory. It is the
// fallback when no object-storage bucket is configured.
type LocalEvidenceStore struct {
	dir string
}

// NewLocalEvidenceStore creates a store rooted at dir
func NewLocalEvidenceStore(dir string) (*LocalEvidenceStore, error) {
	if dir == "" {
		dir = "evidence"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("evidence: failed to create directory %s: %w", dir, err)
	}
	return &LocalEvidenceStore{dir: dir}, nil
}

// Save implements EvidenceStore
func (s *LocalEvidenceStore) Save(_ context.Context, orderID, label string, data []byte) (string, error) {
	key := evidenceKey(orderID, label, time.Now())
	path := filepath.Join(s.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("evidence: failed to create order directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("evidence: failed to write %s: %w", path, err)
	}
	return path, nil
}

var _ EvidenceStore = (*LocalEvidenceStore)(nil)
