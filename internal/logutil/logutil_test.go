package logutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestIsSensitiveLogField(t *testing.T) {
	t.Parallel()
	for _, key := range []string{"PASSWORD", "API_KEY", "api-key", "AWS_SECRET_ACCESS_KEY", "AWS_ACCESS_KEY_ID", "Authorization", "session_cookie"} {
		assert.True(t, IsSensitiveLogField(key), key)
	}
	for _, key := range []string{"BASE_URL", "USERNAME", "HEADLESS", "VIEWPORT_WIDTH", "TRACE"} {
		assert.False(t, IsSensitiveLogField(key), key)
	}
}

func TestFormatSettingsForLog_SortedAndRedacted(t *testing.T) {
	t.Parallel()
	got := FormatSettingsForLog(map[string]string{
		"PASSWORD": "SuperSecretPassword!",
		"BASE_URL": "http://localhost:3000",
		"API_KEY":  "",
	})
	assert.Equal(t, `API_KEY=""; BASE_URL="http://localhost:3000"; PASSWORD="[REDACTED]"`, got)
	assert.Equal(t, "{}", FormatSettingsForLog(nil))
}

func TestPreview_NeverRevealsShortSecrets(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		secret := rapid.StringMatching(`[A-Za-z0-9]{0,40}`).Draw(rt, "secret")
		n := rapid.IntRange(1, 8).Draw(rt, "n")
		got := Preview(secret, n)
		if len(secret) <= n {
			if got != Redacted {
				rt.Fatalf("short secret leaked: %q -> %q", secret, got)
			}
			return
		}
		if got != secret[:n]+"..." {
			rt.Fatalf("preview mismatch: got=%q", got)
		}
	})
}

func TestTruncateForLog(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", TruncateForLog("   ", 10))
	assert.Equal(t, `a\nb`, TruncateForLog("a\nb", 10))
	long := strings.Repeat("x", 20)
	assert.Equal(t, strings.Repeat("x", 5)+"... [truncated]", TruncateForLog(long, 5))
}

func TestPreviewAndTruncate_CutOnCharacterBoundaries(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		value := rapid.StringMatching(`[a-zé€😀]{1,30}`).Draw(rt, "value")
		n := rapid.IntRange(1, 10).Draw(rt, "n")

		preview := Preview(value, n)
		if !utf8.ValidString(preview) {
			rt.Fatalf("Preview(%q, %d) = %q is not valid UTF-8", value, n, preview)
		}
		if utf8.RuneCountInString(value) > n && preview != string([]rune(value)[:n])+"..." {
			rt.Fatalf("Preview(%q, %d) = %q", value, n, preview)
		}

		truncated := TruncateForLog(value, n)
		if !utf8.ValidString(truncated) {
			rt.Fatalf("TruncateForLog(%q, %d) = %q is not valid UTF-8", value, n, truncated)
		}
	})
}

func TestTruncateForLog_CountsCharacters(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "héé... [truncated]", TruncateForLog("hééllo", 3))
	assert.Equal(t, "€€", TruncateForLog("€€", 2))
}
