package document_test

import (
	"errors"
	"strings"
	"testing"

	"ragcore/src/core/document"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		filename    string
		payload     []byte
		want        document.Format
		wantErr     error
	}{
		{
			name:        "declared content type wins",
			contentType: "text/markdown",
			filename:    "notes.txt",
			want:        document.FormatMarkdown,
		},
		{
			name:        "content type with parameters",
			contentType: "text/plain; charset=utf-8",
			filename:    "notes",
			want:        document.FormatText,
		},
		{
			name:     "extension fallback",
			filename: "report.PDF",
			payload:  []byte("%PDF-1.4"),
			want:     document.FormatPDF,
		},
		{
			name:        "octet-stream falls through to extension",
			contentType: "application/octet-stream",
			filename:    "readme.md",
			want:        document.FormatMarkdown,
		},
		{
			name:     "sniffed html without extension",
			filename: "page",
			payload:  []byte("<!DOCTYPE html><html><body>hi</body></html>"),
			want:     document.FormatHTML,
		},
		{
			name:        "unsupported declared type",
			contentType: "image/png",
			filename:    "cat.png",
			wantErr:     document.ErrUnsupportedFormat,
		},
		{
			name:     "unsupported binary payload",
			filename: "blob",
			payload:  []byte{0x00, 0x01, 0x02, 0x03, 0xff, 0xfe},
			wantErr:  document.ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := document.DetectFormat(tt.contentType, tt.filename, tt.payload)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DetectFormat error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectFormat returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectFormat = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractHTML(t *testing.T) {
	payload := []byte(`<!DOCTYPE html>
<html>
<head><title>ignored</title><style>body { color: red }</style></head>
<body>
<script>var skipped = true;</script>
<h1>Heading</h1>
<p>Body text.</p>
</body>
</html>`)

	text, format, err := document.Extract("text/html", "page.html", payload)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if format != document.FormatHTML {
		t.Errorf("format = %q, want html", format)
	}
	if !strings.Contains(text, "Heading") || !strings.Contains(text, "Body text.") {
		t.Errorf("extracted text missing content: %q", text)
	}
	if strings.Contains(text, "skipped") || strings.Contains(text, "color: red") {
		t.Errorf("extracted text contains script or style content: %q", text)
	}
}

func TestExtractPlainPassthrough(t *testing.T) {
	payload := []byte("# Title\n\nSome markdown body.")

	text, format, err := document.Extract("", "doc.md", payload)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if format != document.FormatMarkdown {
		t.Errorf("format = %q, want markdown", format)
	}
	if text != string(payload) {
		t.Errorf("text-like payloads must pass through unchanged, got %q", text)
	}
}

func TestPipelineProcess(t *testing.T) {
	pipeline, err := document.NewPipeline(100, 20)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("plain text", func(t *testing.T) {
		doc := &document.Document{
			ID:          5,
			Filename:    "notes.txt",
			ContentType: "text/plain",
			Payload:     []byte(strings.Repeat("stable content here ", 30)),
		}
		chunks, err := pipeline.Process(doc)
		if err != nil {
			t.Fatalf("Process returned error: %v", err)
		}
		if len(chunks) == 0 {
			t.Fatal("Process produced no chunks")
		}
		for i, chunk := range chunks {
			if chunk.ID != document.ChunkID(5, i) {
				t.Errorf("chunk %d has ID %q", i, chunk.ID)
			}
		}
	})

	t.Run("empty after normalization", func(t *testing.T) {
		doc := &document.Document{
			ID:          6,
			Filename:    "blank.txt",
			ContentType: "text/plain",
			Payload:     []byte("   \n\t\n  "),
		}
		if _, err := pipeline.Process(doc); !errors.Is(err, document.ErrEmptyContent) {
			t.Errorf("Process error = %v, want ErrEmptyContent", err)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		doc := &document.Document{
			ID:          7,
			Filename:    "image.png",
			ContentType: "image/png",
			Payload:     []byte{0x89, 0x50, 0x4e, 0x47},
		}
		if _, err := pipeline.Process(doc); !errors.Is(err, document.ErrUnsupportedFormat) {
			t.Errorf("Process error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("markdown structural split", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < 10; i++ {
			sb.WriteString("## Section\n\n")
			sb.WriteString(strings.Repeat("sentence about the section. ", 10))
			sb.WriteString("\n\n")
		}
		doc := &document.Document{
			ID:          8,
			Filename:    "guide.md",
			ContentType: "text/markdown",
			Payload:     []byte(sb.String()),
		}
		chunks, err := pipeline.Process(doc)
		if err != nil {
			t.Fatalf("Process returned error: %v", err)
		}
		if len(chunks) < 2 {
			t.Errorf("markdown split produced %d chunks, want several", len(chunks))
		}
		for i, chunk := range chunks {
			if chunk.Ordinal != i {
				t.Errorf("chunk %d has ordinal %d", i, chunk.Ordinal)
			}
		}
	})
}
