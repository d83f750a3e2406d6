package server

import (
	"errors"
	"net/http"

	"github.com/hanamura/wellness-rag/pkg/llm"
	"github.com/hanamura/wellness-rag/pkg/query"
)

// ユーザに返すエラーメッセージ
// プロバイダ由来の詳細（スタックトレース等）は決してレスポンスに含めない
const (
	msgInvalidBody    = "invalid request body"
	msgNoMessage      = "no message provided"
	msgServiceBusy    = "service is currently busy. please try again in a few moments."
	msgGenericFailure = "an error occurred processing your request"
)

// classifyError はパイプラインのエラーをHTTPステータスとユーザ向けメッセージに対応付けます
// 判定は構造化されたエラー種別のパターンマッチで行い、メッセージ文字列は走査しません
func classifyError(err error) (status int, message string) {
	switch {
	case errors.Is(err, query.ErrNoMessage):
		return http.StatusBadRequest, msgNoMessage
	case llm.IsRateLimited(err):
		return http.StatusTooManyRequests, msgServiceBusy
	default:
		return http.StatusInternalServerError, msgGenericFailure
	}
}
