package blogservice

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sushihentaime/blogsphere/internal/common"
)

func newTestService(t *testing.T) (*BlogService, *memStore) {
	t.Helper()

	store := newMemStore()
	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	t.Cleanup(cache.Flush)

	return NewBlogService(store, cache, logger), store
}

func testImage(seed byte) *Upload {
	return &Upload{
		Filename:    "banner.png",
		ContentType: "image/png",
		Data:        bytes.Repeat([]byte{seed}, 2048),
	}
}

func ptr[T any](v T) *T {
	return &v
}

const testContent = "This is a test blog with enough content."
