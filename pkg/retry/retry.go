// Package retry は外部API呼び出し向けの有界リトライを提供します
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMaxAttemptsExceeded は最大試行回数を超えた場合のエラー
	ErrMaxAttemptsExceeded = errors.New("max attempts exceeded")
)

// Policy はリトライの挙動を定義します
type Policy struct {
	// MaxAttempts は初回を含む合計試行回数（1以上）
	MaxAttempts int

	// InitialInterval は初回リトライ前の待機時間
	// 以降は試行ごとに2倍になります
	InitialInterval time.Duration

	// MaxInterval は待機時間の上限
	MaxInterval time.Duration
}

// DefaultPolicy はデフォルトのリトライポリシー
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     4,
		InitialInterval: 2 * time.Second,
		MaxInterval:     32 * time.Second,
	}
}

// retryable はリトライ可否を自己申告するエラーが実装するインターフェース
// 実装していないエラーはリトライ可能として扱います
type retryable interface {
	Retryable() bool
}

// isRetryable はエラーがリトライ対象かどうかを判定します
func isRetryable(err error) bool {
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// Do はopを実行し、失敗時はポリシーに従ってリトライします
// リトライ不可と分類されたエラー（Fatal等）は初回の失敗で即座に返します
// 待機中にctxがキャンセルされた場合はctxのエラーを返します
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if policy.MaxAttempts < 1 {
		return zero, fmt.Errorf("retry: invalid MaxAttempts: %d", policy.MaxAttempts)
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			// Exponential Backoff
			interval := policy.InitialInterval << (attempt - 1)
			if policy.MaxInterval > 0 && interval > policy.MaxInterval {
				interval = policy.MaxInterval
			}

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(interval):
				// バックオフ後、再試行
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrMaxAttemptsExceeded, policy.MaxAttempts, lastErr)
}
