package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Exact routes (no normalization needed)
		{"/", "/"},
		{"/healthz", "/healthz"},
		{"/metrics", "/metrics"},
		{"/listings", "/listings"},
		{"/wanted", "/wanted"},

		// Content routes with IDs
		{"/listings/42", "/listings/:id"},
		{"/listings/42/status", "/listings/:id/status"},
		{"/wanted/7", "/wanted/:id"},
		{"/wanted/7/status", "/wanted/:id/status"},

		// Admin moderation routes
		{"/admin/listings/42/moderate", "/admin/listings/:id/moderate"},
		{"/admin/listings/42/history", "/admin/listings/:id/history"},
		{"/admin/wanted/7/moderate", "/admin/wanted/:id/moderate"},
		{"/admin/wanted/7/history", "/admin/wanted/:id/history"},

		// Admin log routes that shouldn't be normalized
		{"/admin/logs/recent", "/admin/logs/recent"},
		{"/admin/logs/search", "/admin/logs/search"},
		{"/admin/stats", "/admin/stats"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePath(tt.input))
		})
	}
}
