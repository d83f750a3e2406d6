package ingest

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/chromedp/chromedp"
)

// tagPattern は本文からマークアップタグを取り除くためのパターン
var tagPattern = regexp.MustCompile(`<[^>]*>`)

// FetchError はURLの取得・レンダリング失敗を表します
// インジェストではそのURLに対して致命的で、バッチは次のURLへ進みます
type FetchError struct {
	URL string
	Err error
}

// Error はerrorインターフェースを実装します
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

// Unwrap はラップされた元エラーを返します
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Scraper はヘッドレスブラウザでページをレンダリングし、本文テキストを抽出します
type Scraper struct {
	timeout time.Duration
}

// NewScraper は新しいScraperを作成します
func NewScraper(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scraper{timeout: timeout}
}

// Scrape はURLをレンダリングし、タグを除去した本文テキストを返します
// 失敗時は *FetchError を返します
func (s *Scraper) Scrape(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// レンダリング後のDOMから本文HTMLを取り出す
	var body string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.OuterHTML("body", &body, chromedp.ByQuery),
	)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	return stripTags(body), nil
}

// stripTags はHTML本文からすべてのマークアップタグを取り除きます
func stripTags(html string) string {
	return tagPattern.ReplaceAllString(html, "")
}
