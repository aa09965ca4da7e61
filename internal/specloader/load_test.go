package specloader

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetchLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.yaml")
	if err := os.WriteFile(path, []byte(sampleOpenAPI), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	content, err := Fetch(path)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("expected non-empty content")
	}
}

func TestFetchMissingFile(t *testing.T) {
	if _, err := Fetch("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestFetchInlineContent(t *testing.T) {
	content, err := Fetch(sampleOpenAPI)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(content) != sampleOpenAPI {
		t.Fatalf("expected the inline content back verbatim, got %q", content)
	}
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleOpenAPI))
	}))
	defer srv.Close()

	content, err := Fetch(srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("expected non-empty content")
	}
}

func TestParseDispatchesOpenAPI(t *testing.T) {
	snap, err := Parse([]byte(sampleOpenAPI), "inline")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if snap.Source != "openapi3" {
		t.Fatalf("expected openapi3 source, got %q", snap.Source)
	}
}

func TestParseDispatchesPostman(t *testing.T) {
	snap, err := Parse([]byte(samplePostman), "inline")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if snap.Source != "postman2.1" {
		t.Fatalf("expected postman2.1 source, got %q", snap.Source)
	}
}
