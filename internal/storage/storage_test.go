package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/core"
)

// runBlobsContract checks the behavior every backend must share.
func runBlobsContract(t *testing.T, b core.Blobs) {
	t.Helper()
	ctx := context.Background()

	t.Run("MissingKey", func(t *testing.T) {
		_, err := b.Get(ctx, "never-written")
		assert.ErrorIs(t, err, core.ErrBlobNotFound)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		want := []byte(`[{"id":1,"phoneNumber":"+1-888-000-0001","name":"导入一"}]`)
		require.NoError(t, b.Put(ctx, "numbers", want))

		got, err := b.Get(ctx, "numbers")
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("blob mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, b.Put(ctx, "logs", []byte(`[1]`)))
		require.NoError(t, b.Put(ctx, "logs", []byte(`[1,2]`)))

		got, err := b.Get(ctx, "logs")
		require.NoError(t, err)
		assert.Equal(t, `[1,2]`, string(got))
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		require.NoError(t, b.Put(ctx, "persons", []byte(`["a"]`)))
		require.NoError(t, b.Put(ctx, "numbers", []byte(`["b"]`)))

		got, err := b.Get(ctx, "persons")
		require.NoError(t, err)
		assert.Equal(t, `["a"]`, string(got))
	})
}

func TestMemory(t *testing.T) {
	runBlobsContract(t, NewMemory())
}

func TestMemory_FailPut(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Put(ctx, "numbers", []byte(`[]`)))

	boom := errors.New("disk on fire")
	m.FailPut("numbers", boom)

	err := m.Put(ctx, "numbers", []byte(`[1]`))
	assert.ErrorIs(t, err, boom)

	got, err := m.Get(ctx, "numbers")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got), "failed Put must keep the previous blob")
	assert.Equal(t, 2, m.Puts("numbers"))

	m.FailPut("numbers", nil)
	assert.NoError(t, m.Put(ctx, "numbers", []byte(`[1]`)))
}

func TestFile(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)
	runBlobsContract(t, f)
}

func TestFile_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, f.Put(ctx, "numbers", []byte(`[]`)))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "numbers.json", entries[0].Name())
}

func TestFile_RejectsPathKeys(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	for _, key := range []string{"", "../x", "a/b", `a\b`} {
		assert.Error(t, f.Put(ctx, key, []byte(`[]`)), "key %q", key)
	}
}

func TestFile_CreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	_, err := NewFile(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "roster.db"), "test")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	runBlobsContract(t, s)
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roster.db")

	s, err := OpenSQLite(ctx, path, "")
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "numbers", []byte(`[42]`)))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path, "")
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "numbers")
	require.NoError(t, err)
	assert.Equal(t, `[42]`, string(got))
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	prefix := "test-" + time.Now().Format("150405.000000")
	p, err := OpenPostgres(ctx, config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 0}, prefix)
	if err != nil {
		t.Skipf("Postgres not available, skipping integration test: %v", err)
	}
	t.Cleanup(func() {
		p.pool.Exec(context.Background(), `DELETE FROM roster_blobs WHERE key LIKE $1`, prefix+":%")
		p.Close()
	})

	runBlobsContract(t, p)
}

func TestRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skip("Redis not available, skipping integration test")
	}

	r := NewRedis(client, "roster-test")
	t.Cleanup(func() {
		client.Del(context.Background(), "roster-test:numbers", "roster-test:persons", "roster-test:logs")
		r.Close()
	})

	runBlobsContract(t, r)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		b, err := Open(ctx, config.StoreConfig{Backend: config.BackendFile, Dir: t.TempDir(), Timeout: time.Second})
		require.NoError(t, err)
		defer b.Close()
		runBlobsContract(t, b)
	})

	t.Run("memory", func(t *testing.T) {
		b, err := Open(ctx, config.StoreConfig{Backend: "MEMORY"})
		require.NoError(t, err)
		defer b.Close()
		_, ok := b.(*Memory)
		assert.True(t, ok, "zero timeout should return the backend unwrapped")
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(ctx, config.StoreConfig{Backend: "s3"})
		assert.Error(t, err)
	})
}

func TestWithTimeout_BoundsCalls(t *testing.T) {
	b := WithTimeout(&slowBlobs{delay: time.Second}, 20*time.Millisecond)

	start := time.Now()
	_, err := b.Get(context.Background(), "numbers")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

type slowBlobs struct {
	delay time.Duration
}

func (s *slowBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	select {
	case <-time.After(s.delay):
		return nil, core.ErrBlobNotFound
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *slowBlobs) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.Get(ctx, key)
	return err
}

func (s *slowBlobs) Close() error { return nil }
