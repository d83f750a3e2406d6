package lock

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlreadyHeld は対象コレクションのロックが他のプロセスに保持されていることを示します
var ErrAlreadyHeld = errors.New("ingest lock is already held by another process")

// IngestLock は同一コレクションへのインジェストバッチの同時実行を防ぎます
// PostgreSQLのセッションスコープのアドバイザリロックを専用コネクション上で保持します
type IngestLock struct {
	conn   *pgxpool.Conn
	lockID int64
}

// KeyFor はスキーマとコレクション名からロックIDを導出します
// 同じ組み合わせからは常に同じIDが得られます
func KeyFor(schema, collection string) int64 {
	h := sha256.New()
	h.Write([]byte(schema))
	h.Write([]byte{0})
	h.Write([]byte(collection))
	hash := h.Sum(nil)

	// ハッシュの最初の8バイトをint64として使用
	var id int64
	for i := range 8 {
		id = (id << 8) | int64(hash[i])
	}

	return id
}

// AcquireIngest は対象コレクションのインジェストロックを取得します
// 既に別のプロセスが保持している場合はErrAlreadyHeldを返し、ブロックしません
func AcquireIngest(ctx context.Context, pool *pgxpool.Pool, schema, collection string) (*IngestLock, error) {
	lockID := KeyFor(schema, collection)

	// セッションスコープのロックのためコネクションを占有する
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for ingest lock: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to acquire ingest lock: %w", err)
	}

	if !acquired {
		conn.Release()
		return nil, fmt.Errorf("collection %s.%s: %w", schema, collection, ErrAlreadyHeld)
	}

	return &IngestLock{
		conn:   conn,
		lockID: lockID,
	}, nil
}

// Release はインジェストロックを解放し、コネクションをプールへ返却します
func (l *IngestLock) Release(ctx context.Context) error {
	defer l.conn.Release()

	if _, err := l.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", l.lockID); err != nil {
		return fmt.Errorf("failed to release ingest lock: %w", err)
	}

	return nil
}
