package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
)

// Kind はプロバイダエラーの分類を表します
type Kind int

const (
	// KindTransient は一時的なエラー（リトライ対象）
	KindTransient Kind = iota

	// KindRateLimited はレート制限エラー（有界リトライの対象、枯渇時は429として通知）
	KindRateLimited

	// KindFatal は恒久的なエラー（リトライしない）
	KindFatal
)

// String はKindの文字列表現を返します
func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindFatal:
		return "fatal"
	default:
		return "transient"
	}
}

// ProviderError はプロバイダ境界で分類済みのエラーを表します
// 下流はエラーメッセージの文字列走査ではなく、Kindのパターンマッチで判定します
type ProviderError struct {
	Kind Kind
	Err  error
}

// Error はerrorインターフェースを実装します
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%s): %v", e.Kind, e.Err)
}

// Unwrap はラップされた元エラーを返します
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable はretryパッケージに対してリトライ可否を申告します
func (e *ProviderError) Retryable() bool {
	return e.Kind != KindFatal
}

// classify はプロバイダAPI呼び出しのエラーをProviderErrorに変換します
func classify(err error) *ProviderError {
	// コンテキストのキャンセルはリトライしても意味がない
	if errors.Is(err, context.Canceled) {
		return &ProviderError{Kind: KindFatal, Err: err}
	}

	// タイムアウトは一時的エラーとして扱う
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Kind: KindTransient, Err: err}
	}

	// OpenAI SDKのエラー型からステータスコードで分類する
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return &ProviderError{Kind: KindRateLimited, Err: err}
		case apiErr.StatusCode == 408 || apiErr.StatusCode >= 500:
			return &ProviderError{Kind: KindTransient, Err: err}
		default:
			// 認証エラーや不正リクエストなどの4xx
			return &ProviderError{Kind: KindFatal, Err: err}
		}
	}

	// ネットワーク層の失敗は一時的エラーとして扱う
	return &ProviderError{Kind: KindTransient, Err: err}
}

// IsRateLimited はエラーがレート制限に分類されているかどうかを判定します
func IsRateLimited(err error) bool {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind == KindRateLimited
	}
	return false
}
