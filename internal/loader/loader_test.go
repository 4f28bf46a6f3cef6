package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/inquira/inquira/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDirectory_TextAndMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "first paragraph\n\nsecond paragraph")
	writeFile(t, dir, "readme.md", "# Heading\n\nbody text")
	writeFile(t, dir, "image.png", "binary junk")

	docs, err := LoadDirectory(dir, "")
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if len(docs) != 4 {
		t.Fatalf("got %d documents, want 4: %+v", len(docs), docs)
	}

	byMeta := make(map[string]string, len(docs))
	for _, doc := range docs {
		byMeta[doc.Metadata] = doc.Content
	}
	if byMeta["notes_0"] != "first paragraph" || byMeta["notes_1"] != "second paragraph" {
		t.Errorf("txt segments wrong: %v", byMeta)
	}
	if byMeta["readme_0"] != "# Heading" {
		t.Errorf("md segments wrong: %v", byMeta)
	}
}

func TestLoadDirectory_SkipsBlankFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.txt", "   \n\n  ")
	writeFile(t, dir, "real.txt", "content")

	docs, err := LoadDirectory(dir, "")
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if len(docs) != 1 || docs[0].Metadata != "real_0" {
		t.Errorf("got %+v", docs)
	}
}

func TestLoadDirectory_NothingLoadable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "image.png", "junk")

	_, err := LoadDirectory(dir, "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestLoadDirectory_Missing(t *testing.T) {
	if _, err := LoadDirectory(filepath.Join(t.TempDir(), "nope"), ""); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestSanitizeUTF8(t *testing.T) {
	in := "valid\xfftext"
	if got := sanitizeUTF8(in); got != "validtext" {
		t.Errorf("got %q", got)
	}
	if got := sanitizeUTF8("clean"); got != "clean" {
		t.Errorf("got %q", got)
	}
}
