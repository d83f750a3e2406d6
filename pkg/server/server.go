// Package server はチャットAPIのHTTPインターフェースを提供します
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hanamura/wellness-rag/pkg/models"
)

const (
	// shutdownTimeout はグレースフルシャットダウンの猶予時間
	shutdownTimeout = 10 * time.Second
)

// Answerer はチャットリクエストに回答するインターフェース
type Answerer interface {
	Answer(ctx context.Context, messages []models.Message) (string, error)
}

// chatRequest は POST /chat のリクエストボディ
type chatRequest struct {
	Messages []models.Message `json:"messages"`
}

// chatResponse は成功時のレスポンスボディ
type chatResponse struct {
	Content string `json:"content"`
}

// errorResponse は失敗時のレスポンスボディ
type errorResponse struct {
	Error string `json:"error"`
}

// Server はチャットAPIのHTTPサーバです
type Server struct {
	answerer Answerer
	logger   *slog.Logger
	httpSrv  *http.Server
}

// New は新しいServerを作成します
func New(answerer Answerer, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		answerer: answerer,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start はサーバを起動し、ctxのキャンセルでグレースフルに停止します
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", slog.String("addr", s.httpSrv.Addr))
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return nil
	}
}

// Handler はルーティング済みのハンドラを返します（テスト用）
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// handleChat は POST /chat を処理します
// リクエストが中断された場合、r.Context経由で実行中のリトライループも中断されます
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	content, err := s.answerer.Answer(r.Context(), req.Messages)
	if err != nil {
		status, message := classifyError(err)

		// クライアント切断によるキャンセルは異常系として数えない
		if errors.Is(err, context.Canceled) {
			s.logger.Info("chat request canceled by client")
		} else {
			s.logger.Error("chat request failed",
				slog.Int("status", status),
				slog.String("error", err.Error()),
			)
		}

		s.writeError(w, status, message)
		return
	}

	s.writeJSON(w, http.StatusOK, chatResponse{Content: content})
}

// writeJSON はJSONレスポンスを書き込みます
func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError はエラーレスポンスを書き込みます
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
