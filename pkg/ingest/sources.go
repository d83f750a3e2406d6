package ingest

import "github.com/hanamura/wellness-rag/pkg/models"

// DefaultSources はナレッジベースの取り込み対象の固定リスト
// 女性の健康・ホルモン・ライフスタイル最適化に関する専門家の記事から構成される
var DefaultSources = []models.SourceDocument{
	{URL: "https://www.saragottfriedmd.com/filling-the-gaps-in-womens-health-personalized-guidance-is-essential/"},
	{URL: "https://www.saragottfriedmd.com/women-and-autoimmune-disease-why-are-our-rates-higher/"},
	{URL: "https://www.saragottfriedmd.com/hormone-imbalance-lets-stop-normalizing-it/"},
	{URL: "https://www.saragottfriedmd.com/unlock-the-secrets-to-hormone-health-for-longevity-and-vitality/"},
	{URL: "https://drmindypelz.com/the-art-of-intuitive-fasting-with-dr-will-cole/"},
	{URL: "https://drmindypelz.com/lifestyle-hacks-to-naturally-balance-hormones-with-dr-stephanie-estima/"},
	{URL: "https://drmindypelz.com/ep257/"},
	{URL: "https://drmindypelz.com/ep264/"},
	{URL: "https://www.natniddam.com/blog/supplementing-for-brain-health-a-comprehensive-guide-on-how-to-do-it-right/"},
	{URL: "https://www.kaylabarnes.com/articles/muscle-an-organ-of-longevity"},
	{URL: "https://www.kaylabarnes.com/articles/fasting-for-women"},
	{URL: "https://www.kaylabarnes.com/articles/circadian-rhythms-why-it-matters-amp-how-to-optimise-yours"},
	{URL: "https://www.kaylabarnes.com/articles/where-i-would-start-with-health-optimization-as-a-woman-extended-version"},
}
