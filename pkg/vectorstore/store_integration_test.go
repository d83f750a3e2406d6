package vectorstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startPgvector はpgvector入りPostgreSQLコンテナを起動し、接続プールを返します
func startPgvector(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "failed to connect to docker")

	resource, err := pool.Run("pgvector/pgvector", "pg16", []string{
		"POSTGRES_USER=wellness",
		"POSTGRES_PASSWORD=secret",
		"POSTGRES_DB=wellness_test",
	})
	require.NoError(t, err, "failed to start pgvector container")
	t.Cleanup(func() {
		_ = pool.Purge(resource)
	})

	connString := fmt.Sprintf(
		"host=localhost port=%s user=wellness password=secret dbname=wellness_test sslmode=disable",
		resource.GetPort("5432/tcp"),
	)

	var dbPool *pgxpool.Pool
	pool.MaxWait = 60 * time.Second
	err = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		p, err := pgxpool.New(ctx, connString)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		dbPool = p
		return nil
	})
	require.NoError(t, err, "database did not become ready")
	t.Cleanup(dbPool.Close)

	return dbPool
}

func TestStore_InsertAndSearch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping docker-backed integration test in short mode")
	}

	ctx := context.Background()
	dbPool := startPgvector(t)

	// テストを読みやすくするため低次元のコレクションを使う
	store := New(dbPool, "knowledge", "articles", 3)
	require.NoError(t, store.EnsureCollection(ctx))

	// 冪等であること
	require.NoError(t, store.EnsureCollection(ctx))

	// 異なる次元での再作成はエラーになること
	mismatched := New(dbPool, "knowledge", "articles", 4)
	err := mismatched.EnsureCollection(ctx)
	require.Error(t, err)
	assert.True(t, IsStoreError(err))

	// 挿入
	records := []struct {
		vec  []float32
		text string
	}{
		{[]float32{1, 0, 0}, "Cucumber reduces bloating."},
		{[]float32{0.9, 0.1, 0}, "Stay hydrated."},
		{[]float32{0, 0, 1}, "Unrelated topic."},
	}
	for _, r := range records {
		rec, err := store.Insert(ctx, r.vec, r.text)
		require.NoError(t, err)
		assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", rec.ID.String())
		assert.False(t, rec.CreatedAt.IsZero())
	}

	// 内積の類似度降順で返ること
	results, err := store.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Cucumber reduces bloating.", results[0].Text)
	assert.Equal(t, "Stay hydrated.", results[1].Text)
	assert.Greater(t, results[0].Score, results[1].Score)

	// limitより件数が少ない場合はある分だけ返ること
	results, err = store.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestStore_DimensionValidation(t *testing.T) {
	// 次元チェックはDBアクセス前に行われるため、プールなしで検証できる
	store := New(nil, "knowledge", "articles", 3)

	_, err := store.Insert(context.Background(), []float32{1, 0}, "short vector")
	require.Error(t, err)
	assert.True(t, IsStoreError(err))

	_, err = store.Search(context.Background(), []float32{1, 0, 0, 0}, 5)
	require.Error(t, err)
	assert.True(t, IsStoreError(err))

	_, err = store.Search(context.Background(), []float32{1, 0, 0}, 0)
	require.Error(t, err)
	assert.True(t, IsStoreError(err))
}
