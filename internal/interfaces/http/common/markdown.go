package common

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	sanitizer = bluemonday.UGCPolicy()
)

func init() {
	sanitizer.AddTargetBlankToFullyQualifiedLinks(true)
	sanitizer.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown はコンテスト説明文を HTML に変換し、UGC ポリシーでサニタイズする。
// 変換に失敗した場合は原文をエスケープして返す。
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return sanitizer.Sanitize(source)
	}
	return string(sanitizer.SanitizeBytes(buf.Bytes()))
}
