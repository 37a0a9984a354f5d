package common

const (
	// MaxJSONRequestBody limits JSON request bodies for contest/vote endpoints.
	MaxJSONRequestBody = 1 << 20
	// DefaultMaxUploadBytes limits multipart photo uploads when no explicit limit is configured.
	DefaultMaxUploadBytes = 10 << 20
)
