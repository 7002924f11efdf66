package document

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// Format identifies how a document's payload is parsed to text.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

var mediaTypeFormats = map[string]Format{
	"text/plain":       FormatText,
	"text/markdown":    FormatMarkdown,
	"text/x-markdown":  FormatMarkdown,
	"text/html":        FormatHTML,
	"application/pdf":  FormatPDF,
	"application/json": FormatJSON,
}

var extensionFormats = map[string]Format{
	".txt":      FormatText,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".pdf":      FormatPDF,
	".json":     FormatJSON,
}

// DetectFormat resolves the parsing format for a document. The declared
// content type wins; the filename extension is consulted next, and finally
// the payload is sniffed.
func DetectFormat(contentType, filename string, payload []byte) (Format, error) {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if f, ok := mediaTypeFormats[mediaType]; ok {
				return f, nil
			}
			// Generic types carry no format information; fall through to
			// extension and sniffing.
			if mediaType != "application/octet-stream" {
				return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mediaType)
			}
		}
	}

	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		if f, ok := extensionFormats[ext]; ok {
			return f, nil
		}
	}

	detected := mimetype.Detect(payload)
	for mt := detected; mt != nil; mt = mt.Parent() {
		base, _, err := mime.ParseMediaType(mt.String())
		if err == nil {
			if f, ok := mediaTypeFormats[base]; ok {
				return f, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, detected.String())
}

// Extract parses a document payload to plain text according to its format.
func Extract(contentType, filename string, payload []byte) (string, Format, error) {
	format, err := DetectFormat(contentType, filename, payload)
	if err != nil {
		return "", "", err
	}

	var text string
	switch format {
	case FormatText, FormatMarkdown, FormatJSON:
		text = string(payload)
	case FormatHTML:
		text, err = extractHTML(payload)
	case FormatPDF:
		text, err = extractPDF(payload)
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to extract %s text: %w", format, err)
	}

	return text, format, nil
}

func extractHTML(payload []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	// Strip non-content nodes before collecting text.
	doc.Find("script, style, noscript").Remove()

	body := doc.Find("body")
	if body.Length() > 0 {
		return body.Text(), nil
	}
	return doc.Text(), nil
}

func extractPDF(payload []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", err
	}
	return sb.String(), nil
}
