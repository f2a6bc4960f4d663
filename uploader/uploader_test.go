package uploader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOverwrites(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStorage(root)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "CS101/Week 1/notes.pdf", []byte("first")))
	require.NoError(t, store.Save(ctx, "CS101/Week 1/notes.pdf", []byte("second")))

	data, err := os.ReadFile(filepath.Join(root, "CS101", "Week 1", "notes.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestLocalStoragePrepareIsIdempotent(t *testing.T) {
	store := NewLocalStorage(t.TempDir())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Prepare(ctx, "CS101/General")
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	info, err := os.Stat(store.Path("CS101/General"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalStorageSaveError(t *testing.T) {
	root := t.TempDir()
	// a file where a directory is expected
	require.NoError(t, os.WriteFile(filepath.Join(root, "blocked"), nil, 0644))

	err := NewLocalStorage(root).Save(context.Background(), "blocked/file.bin", []byte("x"))
	assert.Error(t, err)
}

type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (m *memStorage) Prepare(ctx context.Context, dir string) error { return m.err }

func (m *memStorage) Save(ctx context.Context, key string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[key] = data
	return nil
}

func TestTee(t *testing.T) {
	primary := &memStorage{}
	good := &memStorage{}
	bad := &memStorage{err: errors.New("bucket gone")}
	tee := NewTee(zerolog.Nop(), primary, bad, good)
	ctx := context.Background()

	require.NoError(t, tee.Prepare(ctx, "a"))
	require.NoError(t, tee.Save(ctx, "a/b.txt", []byte("hi")))
	assert.Equal(t, "hi", string(primary.files["a/b.txt"]))
	assert.Equal(t, "hi", string(good.files["a/b.txt"]))

	failing := NewTee(zerolog.Nop(), &memStorage{err: errors.New("disk full")}, good)
	assert.Error(t, failing.Save(ctx, "a/c.txt", []byte("x")))
	_, copied := good.files["a/c.txt"]
	assert.False(t, copied)
}

func TestS3StorageSave(t *testing.T) {
	var (
		mu      sync.Mutex
		gotPath string
		gotBody string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath = r.Method + " " + r.URL.Path
		gotBody = string(body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewS3Storage(context.Background(), S3Options{
		Bucket:   "courses",
		Prefix:   "/mirror/",
		Endpoint: srv.URL,
		Region:   "us-east-1",
		User:     "admin",
		Password: "password",
	})
	require.NoError(t, err)

	require.NoError(t, store.Prepare(context.Background(), "CS101"))
	require.NoError(t, store.Save(context.Background(), "CS101/Week1/notes.pdf", []byte("pdf bytes")))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "PUT /courses/mirror/CS101/Week1/notes.pdf", gotPath)
	assert.Contains(t, gotBody, "pdf bytes")
}

func TestS3ObjectKey(t *testing.T) {
	assert.Equal(t, "a/b.pdf", (&S3Storage{}).objectKey("/a/b.pdf"))
	assert.Equal(t, "p/a/b.pdf", (&S3Storage{prefix: "p"}).objectKey("a/b.pdf"))
}
