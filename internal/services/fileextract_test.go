package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestChunkText(t *testing.T) {
	s := NewFileExtractService()

	t.Run("packs paragraphs under the limit", func(t *testing.T) {
		text := "First paragraph.\n\nSecond paragraph.\n\nThird paragraph."
		chunks := s.ChunkText(text)

		if len(chunks) != 1 {
			t.Fatalf("Expected 1 chunk, got %d", len(chunks))
		}
		if !strings.Contains(chunks[0], "First paragraph.") || !strings.Contains(chunks[0], "Third paragraph.") {
			t.Errorf("Chunk lost content: %q", chunks[0])
		}
	})

	t.Run("splits at the rune limit", func(t *testing.T) {
		big := strings.Repeat("word ", 300) // ~1500 chars per paragraph
		text := big + "\n\n" + big + "\n\n" + big
		chunks := s.ChunkText(text)

		if len(chunks) < 2 {
			t.Fatalf("Expected multiple chunks, got %d", len(chunks))
		}
	})

	t.Run("limit counts runes not bytes", func(t *testing.T) {
		// Two-byte characters: 900 runes per paragraph, 1800 bytes each.
		// Two paragraphs fit the 2000-rune limit even though their byte
		// length is far past it.
		para := strings.Repeat("ж", 900)
		chunks := s.ChunkText(para + "\n\n" + para)

		if len(chunks) != 1 {
			t.Fatalf("Expected 1 chunk, got %d", len(chunks))
		}
		if got := len([]rune(chunks[0])); got != 1802 {
			t.Errorf("Chunk rune count = %d, want 1802", got)
		}
	})

	t.Run("oversized paragraph becomes its own chunk", func(t *testing.T) {
		huge := strings.Repeat("x", chunkRuneLimit*2)
		chunks := s.ChunkText("small\n\n" + huge + "\n\nsmall again")

		if len(chunks) != 3 {
			t.Fatalf("Expected 3 chunks, got %d", len(chunks))
		}
		if len(chunks[1]) != chunkRuneLimit*2 {
			t.Errorf("Oversized paragraph must not be split, got %d chars", len(chunks[1]))
		}
	})

	t.Run("empty input yields no chunks", func(t *testing.T) {
		if chunks := s.ChunkText("  \n\n  \n\n"); len(chunks) != 0 {
			t.Errorf("Expected no chunks, got %d", len(chunks))
		}
	})
}

func TestExtractPlainText(t *testing.T) {
	s := NewFileExtractService()
	dir := t.TempDir()

	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("Line one\r\nLine two\r\n\r\n\r\nLine three"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	text, err := s.ExtractTextFromPath(path)
	if err != nil {
		t.Fatalf("ExtractTextFromPath: %v", err)
	}

	if strings.Contains(text, "\r") {
		t.Error("Carriage returns must be normalized away")
	}
	if strings.Contains(text, "\n\n\n") {
		t.Error("Runs of blank lines must be collapsed")
	}
	if !strings.Contains(text, "Line three") {
		t.Errorf("Lost content: %q", text)
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	s := NewFileExtractService()

	if _, err := s.ExtractTextFromPath("/tmp/whatever.exe"); err == nil {
		t.Fatal("Expected error for unsupported extension")
	}
}

func TestExtractEmptyFile(t *testing.T) {
	s := NewFileExtractService()
	dir := t.TempDir()

	path := filepath.Join(dir, "empty.md")
	if err := os.WriteFile(path, []byte("   \n  "), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := s.ExtractTextFromPath(path); err == nil {
		t.Fatal("Expected error for file with no usable text")
	}
}

func TestStripDOCXML(t *testing.T) {
	xml := `<w:document><w:body><w:p><w:r><w:t>Hello &amp; welcome</w:t></w:r></w:p><w:p><w:r><w:t>Next line</w:t></w:r></w:p></w:body></w:document>`

	text := stripDOCXML([]byte(xml))
	if !strings.Contains(text, "Hello & welcome") {
		t.Errorf("Entities not decoded: %q", text)
	}
	if !strings.Contains(text, "\n") {
		t.Error("Paragraph boundaries must become newlines")
	}
	if strings.Contains(text, "<") {
		t.Errorf("Tags must be stripped: %q", text)
	}
}
