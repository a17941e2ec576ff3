package fulfillment

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEvidenceStore(t *testing.T) {
	store, err := NewLocalEvidenceStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.Save(context.Background(), "ORD-20260830120000-A1B2C3", "confirmation", []byte("png-bytes"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Contains(t, path, "ORD-20260830120000-A1B2C3")
	assert.Contains(t, path, "confirmation")
}

func TestEvidenceKey(t *testing.T) {
	now := time.Unix(1756500000, 0)
	key := evidenceKey("ORD-1", "Failure Page", now)
	assert.Equal(t, "evidence/ORD-1/failure_page_1756500000.png", key)
}
