package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserAgent_Browser(t *testing.T) {
	info := ParseUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	require.NotNil(t, info)
	assert.Equal(t, "Chrome 124.0", info.Browser)
	assert.Equal(t, "Computer", info.Device)
	assert.Contains(t, info.OS, "Windows")
}

func TestParseUserAgent_Bot(t *testing.T) {
	info := ParseUserAgent("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	require.NotNil(t, info)
	assert.Contains(t, strings.ToLower(info.Browser), "googlebot")
}

func TestParseUserAgent_Empty(t *testing.T) {
	assert.Nil(t, ParseUserAgent("  "))
}
