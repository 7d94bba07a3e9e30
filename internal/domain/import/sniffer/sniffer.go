// Package sniffer classifies uploaded statements before parsing: file
// format from name and MIME type, text encoding, delimiter and header row.
package sniffer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Format is the container format of an uploaded statement.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported statement format")
	ErrEmptyFile         = errors.New("file is empty")
	ErrNoHeadersFound    = errors.New("could not find data headers")
)

var extensionFormats = map[string]Format{
	".csv":  FormatCSV,
	".txt":  FormatCSV,
	".pdf":  FormatPDF,
	".xlsx": FormatXLSX,
	".xls":  FormatXLS,
}

var mimeFormats = map[string]Format{
	"text/csv":                 FormatCSV,
	"application/csv":          FormatCSV,
	"text/plain":               FormatCSV,
	"application/pdf":          FormatPDF,
	"application/vnd.ms-excel": FormatXLS,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": FormatXLSX,
}

// DetectFormat picks the format from the file extension, then the declared
// MIME type. Untyped text without an extension is read as CSV.
func DetectFormat(filename, contentType string) (Format, error) {
	if f, ok := FormatFromExtension(filename); ok {
		return f, nil
	}
	ext := filepath.Ext(filename)

	mediaType := ""
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = strings.ToLower(mt)
		}
	}
	if f, ok := mimeFormats[mediaType]; ok {
		return f, nil
	}
	if ext == "" && (mediaType == "" || strings.HasPrefix(mediaType, "text/")) {
		return FormatCSV, nil
	}
	return "", ErrUnsupportedFormat
}

// FormatFromExtension reports the format named by the file extension alone.
func FormatFromExtension(filename string) (Format, bool) {
	f, ok := extensionFormats[strings.ToLower(filepath.Ext(filename))]
	return f, ok
}

// NormalizeText strips a UTF-8 BOM and decodes Windows-1250 exports, the
// code page older Hungarian netbank CSVs are written in.
func NormalizeText(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	if utf8.Valid(data) {
		return data
	}
	decoded, err := charmap.Windows1250.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}

// DetectDelimiter returns the most frequent field separator in line and
// how often it occurs.
func DetectDelimiter(line string) (rune, int) {
	delimiters := []rune{';', '\t', ',', '|'}
	bestDelimiter := rune(0)
	bestCount := 0
	for _, d := range delimiters {
		count := strings.Count(line, string(d))
		if count > bestCount {
			bestCount = count
			bestDelimiter = d
		}
	}
	return bestDelimiter, bestCount
}

// FindHeaderRow returns the index of the first row among the first maxRows
// whose cells contain any of keywords (case insensitive).
func FindHeaderRow(rows [][]string, keywords []string, maxRows int) (int, error) {
	for i, row := range rows {
		if i >= maxRows {
			break
		}
		for _, cell := range row {
			lower := strings.ToLower(strings.TrimSpace(cell))
			if lower == "" {
				continue
			}
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					return i, nil
				}
			}
		}
	}
	return -1, ErrNoHeadersFound
}

// FindColumn returns the first header index containing a term. Terms are
// tried in order so earlier terms take precedence over header position.
func FindColumn(headers []string, terms []string) int {
	for _, term := range terms {
		for i, h := range headers {
			if strings.Contains(strings.ToLower(strings.TrimSpace(h)), term) {
				return i
			}
		}
	}
	return -1
}

// Fingerprint identifies a statement file by content so repeated uploads
// can be recognised in logs and the archive.
func Fingerprint(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
