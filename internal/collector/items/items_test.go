package items

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/newthinker/albionflip/internal/core"
	"github.com/newthinker/albionflip/internal/storage/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `[
	{"UniqueName": "T4_BAG", "LocalizedNames": {"EN-US": "Adept's Bag"}, "LocalizedDescriptions": {"EN-US": "A bag."}},
	{"UniqueName": "UNIQUE_HIDEOUT", "LocalizedNames": null, "LocalizedDescriptions": null}
]`

func catalogServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(catalogJSON))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, "items", New("").Name())
}

func TestNew_DefaultURL(t *testing.T) {
	assert.Equal(t, DefaultURL, New("").url)
}

func TestClient_FetchCatalog(t *testing.T) {
	var hits int32
	server := catalogServer(t, &hits)

	entries, err := New(server.URL).FetchCatalog(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "T4_BAG", entries[0].UniqueName)
	assert.Equal(t, "Adept's Bag", entries[0].LocalizedNames["EN-US"])
	assert.Nil(t, entries[1].LocalizedNames)
}

func TestClient_FetchCatalog_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL).FetchCatalog(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrCatalogUnavailable))
}

func TestClient_FetchCatalog_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"}`))
	}))
	defer server.Close()

	_, err := New(server.URL).FetchCatalog(context.Background())
	assert.True(t, errors.Is(err, core.ErrCatalogUnavailable))
}

func TestClient_FetchCatalog_UsesCache(t *testing.T) {
	var hits int32
	server := catalogServer(t, &hits)
	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	client := New(server.URL, WithCache(store, ""))

	_, err = client.FetchCatalog(ctx)
	require.NoError(t, err)
	entries, err := client.FetchCatalog(ctx)
	require.NoError(t, err)

	assert.Len(t, entries, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	cached, err := store.Exists(ctx, DefaultCacheKey)
	require.NoError(t, err)
	assert.True(t, cached)
}

func TestClient_FetchCatalog_Refresh(t *testing.T) {
	var hits int32
	server := catalogServer(t, &hits)
	store, _ := archive.NewLocalFS(t.TempDir())
	ctx := context.Background()

	New(server.URL, WithCache(store, "items.json")).FetchCatalog(ctx)
	_, err := New(server.URL, WithCache(store, "items.json"), WithRefresh(true)).FetchCatalog(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_FetchCatalog_CorruptCacheFallsBack(t *testing.T) {
	var hits int32
	server := catalogServer(t, &hits)
	store, _ := archive.NewLocalFS(t.TempDir())
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, DefaultCacheKey, []byte("garbage")))

	entries, err := New(server.URL, WithCache(store, "")).FetchCatalog(ctx)
	require.NoError(t, err)

	assert.Len(t, entries, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
