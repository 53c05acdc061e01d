package media

import (
	"bytes"
	"strings"
)

// signatureEntry — сигнатура формата файла: магические байты по фиксированному смещению.
type signatureEntry struct {
	mimeType  string
	signature []byte
	offset    int
}

// minSampleSize — минимальный размер выборки для проверки сигнатуры.
const minSampleSize = 8

// signatureTable — таблица сигнатур известных форматов.
// Порядок записей значим: DetectMimeType возвращает первое совпадение,
// поэтому ZIP-контейнеры офисных форматов стоят раньше общего application/zip.
var signatureTable = []signatureEntry{
	{"image/jpeg", []byte{0xFF, 0xD8, 0xFF}, 0},
	{"image/png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, 0},
	{"image/gif", []byte("GIF8"), 0},
	{"image/webp", []byte("RIFF"), 0},
	{"image/bmp", []byte{0x42, 0x4D}, 0},
	{"application/pdf", []byte("%PDF"), 0},
	{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte{0x50, 0x4B, 0x03, 0x04}, 0},
	{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", []byte{0x50, 0x4B, 0x03, 0x04}, 0},
	{"application/vnd.openxmlformats-officedocument.presentationml.presentation", []byte{0x50, 0x4B, 0x03, 0x04}, 0},
	{"application/zip", []byte{0x50, 0x4B, 0x03, 0x04}, 0},
	{"application/x-rar-compressed", []byte("Rar!"), 0},
	{"application/gzip", []byte{0x1F, 0x8B}, 0},
	{"application/x-7z-compressed", []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, 0},
	{"audio/mpeg", []byte("ID3"), 0},
	{"audio/ogg", []byte("OggS"), 0},
	{"audio/flac", []byte("fLaC"), 0},
	{"video/mp4", []byte("ftyp"), 4},
	{"video/webm", []byte{0x1A, 0x45, 0xDF, 0xA3}, 0},
}

// ValidateFileContent проверяет, соответствует ли содержимое заявленному MIME-типу.
// Типы без зарегистрированной сигнатуры проходят проверку без сравнения —
// осознанная политика доверия к неизвестным форматам.
func ValidateFileContent(buf []byte, claimedMimeType string) bool {
	var candidates []signatureEntry
	for _, entry := range signatureTable {
		if strings.HasPrefix(claimedMimeType, entry.mimeType) {
			candidates = append(candidates, entry)
		}
	}
	if len(candidates) == 0 {
		return true
	}
	if len(buf) < minSampleSize {
		return false
	}
	for _, entry := range candidates {
		if matchesAt(buf, entry.signature, entry.offset) {
			return true
		}
	}
	return false
}

// DetectMimeType определяет MIME-тип по сигнатуре содержимого.
// Возвращает тип первой совпавшей записи таблицы и false, если не совпала ни одна.
func DetectMimeType(buf []byte) (string, bool) {
	for _, entry := range signatureTable {
		if matchesAt(buf, entry.signature, entry.offset) {
			return entry.mimeType, true
		}
	}
	return "", false
}

func matchesAt(buf, signature []byte, offset int) bool {
	if len(buf) < offset+len(signature) {
		return false
	}
	return bytes.Equal(buf[offset:offset+len(signature)], signature)
}
