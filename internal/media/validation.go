package media

import (
	"errors"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidFilename = errors.New("invalid filename")
	ErrPathTraversal   = errors.New("path traversal detected")
)

// ValidateFilename проверяет имя файла на безопасность
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}

	if strings.Contains(filename, "..") || strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		return ErrPathTraversal
	}

	if len(filename) > 255 {
		return ErrInvalidFilename
	}

	if !utf8.ValidString(filename) {
		return ErrInvalidFilename
	}

	ext := strings.ToLower(filepath.Ext(filename))
	baseName := strings.TrimSuffix(filename, ext)
	if len(baseName) == 0 {
		return ErrInvalidFilename
	}

	return nil
}

// NormalizeMimeType разбирает и нормализует MIME-тип (без параметров, в нижнем регистре).
func NormalizeMimeType(contentType string) (string, error) {
	if contentType == "" {
		return "", errors.New("content type required")
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", err
	}

	return strings.ToLower(mediaType), nil
}

// SanitizeFilename очищает имя файла от опасных символов
func SanitizeFilename(filename string) string {

	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "")
	filename = strings.ReplaceAll(filename, "\\", "")

	// Удаляем управляющие символы
	var builder strings.Builder
	for _, r := range filename {
		if r >= 32 && r != 127 {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// EscapeFilename экранирует имя файла для использования в HTTP заголовках
func EscapeFilename(filename string) string {

	filename = strings.ReplaceAll(filename, `\`, `\\`)
	filename = strings.ReplaceAll(filename, `"`, `\"`)
	return filename
}
