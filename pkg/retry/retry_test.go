package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fatalErr はリトライ不可を自己申告するテスト用エラー
type fatalErr struct{ msg string }

func (e *fatalErr) Error() string   { return e.msg }
func (e *fatalErr) Retryable() bool { return false }

// testPolicy はテスト用にバックオフをほぼゼロにしたポリシー
func testPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts:     maxAttempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	// n-1回失敗して成功する操作はちょうどn回呼ばれ、成功値を返すこと
	calls := 0
	result, err := Do(context.Background(), testPolicy(5), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient failure")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	cause := errors.New("still failing")
	_, err := Do(context.Background(), testPolicy(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, cause
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, ErrMaxAttemptsExceeded)
	// 最後のエラーがラップされていること
	assert.ErrorIs(t, err, cause)
}

func TestDo_FatalErrorIsNotRetried(t *testing.T) {
	// Fatalに分類されたエラーはMaxAttemptsにかかわらず1回だけ呼ばれること
	calls := 0
	_, err := Do(context.Background(), testPolicy(10), func(ctx context.Context) (int, error) {
		calls++
		return 0, &fatalErr{msg: "invalid api key"}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var fe *fatalErr
	assert.ErrorAs(t, err, &fe)
}

func TestDo_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	policy := Policy{MaxAttempts: 3, InitialInterval: time.Hour}
	_, err := Do(ctx, policy, func(ctx context.Context) (int, error) {
		calls++
		cancel() // 初回失敗後のバックオフ待機をキャンセルさせる
		return 0, errors.New("transient")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_InvalidMaxAttempts(t *testing.T) {
	_, err := Do(context.Background(), Policy{MaxAttempts: 0}, func(ctx context.Context) (int, error) {
		t.Fatal("op should not be invoked")
		return 0, nil
	})
	require.Error(t, err)
}
