package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDigestBytes(t *testing.T) {
	h := sha256.Sum256([]byte("abc"))
	want := "sha256:" + hex.EncodeToString(h[:])
	if got := DigestBytes([]byte("abc")); got != want {
		t.Fatalf("DigestBytes = %q, want %q", got, want)
	}
}

func TestDigestJSONStableForStructs(t *testing.T) {
	type rec struct {
		B int `json:"b"`
		A int `json:"a"`
	}
	d1, raw, err := DigestJSON(rec{B: 2, A: 1})
	if err != nil {
		t.Fatal(err)
	}
	d2, _, err := DigestJSON(rec{A: 1, B: 2})
	if err != nil {
		t.Fatal(err)
	}
	if d1 != d2 {
		t.Fatalf("expected equal digests, got %s vs %s", d1, d2)
	}
	if string(raw) != `{"b":2,"a":1}` {
		t.Fatalf("unexpected encoding %s", raw)
	}
}

func TestDigestJSONUnsupportedValue(t *testing.T) {
	_, _, err := DigestJSON(map[string]any{"ch": make(chan int)})
	if err == nil {
		t.Fatal("expected marshal error")
	}
	if !strings.Contains(err.Error(), "marshal for digest") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.txt")
	if FileExists(path) {
		t.Fatal("missing file reported as existing")
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Fatal("existing file not found")
	}
	if FileExists(dir) {
		t.Fatal("directory reported as file")
	}
}
