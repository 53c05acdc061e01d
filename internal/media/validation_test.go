package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  error
	}{
		{"ok", "report.pdf", nil},
		{"no extension ok", "README", nil},
		{"empty", "", ErrInvalidFilename},
		{"traversal dots", "../../etc/passwd", ErrPathTraversal},
		{"slash", "a/b.png", ErrPathTraversal},
		{"backslash", `a\b.png`, ErrPathTraversal},
		{"too long", strings.Repeat("x", 256) + ".png", ErrInvalidFilename},
		{"only extension", ".png", ErrInvalidFilename},
		{"invalid utf8", string([]byte{0xFF, 0xFE}) + ".png", ErrInvalidFilename},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.filename)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "etcpasswd", SanitizeFilename("../etc/passwd"))
	assert.Equal(t, "photo.jpg", SanitizeFilename("photo.jpg"))
	assert.Equal(t, "ab.png", SanitizeFilename("a\x00b.png"))
}

func TestNormalizeMimeType(t *testing.T) {
	mt, err := NormalizeMimeType("Image/JPEG; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mt)

	_, err = NormalizeMimeType("")
	assert.Error(t, err)

	_, err = NormalizeMimeType("not a mime type at all ///")
	assert.Error(t, err)
}

func TestEscapeFilename(t *testing.T) {
	assert.Equal(t, `a\"b\"`, EscapeFilename(`a"b"`))
	assert.Equal(t, `a\\b`, EscapeFilename(`a\b`))
}
