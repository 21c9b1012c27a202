package api

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseKeyValue(t *testing.T) {
	content := "NAME=\"Debian GNU/Linux\"\nVERSION_ID=\"12\"\n# comment\nbroken line\n"
	got, err := parseKeyValue(strings.NewReader(content))
	if err != nil {
		t.Fatalf("parseKeyValue() error = %v", err)
	}
	if got["NAME"] != "Debian GNU/Linux" || got["VERSION_ID"] != "12" {
		t.Errorf("parseKeyValue() = %v", got)
	}
	if len(got) != 2 {
		t.Errorf("lines without '=' should be skipped, got %v", got)
	}
}

func TestReadOSRelease(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"pretty name", write("pretty", "NAME=Arch\nPRETTY_NAME=\"Arch Linux\"\n"), "Arch Linux"},
		{"name only", write("name", "NAME=Alpine\n"), "Alpine"},
		{"empty", write("empty", ""), UNKNOWN},
		{"missing", filepath.Join(dir, "absent"), UNKNOWN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := readOSRelease(tt.path); got != tt.want {
				t.Errorf("readOSRelease() = %q, want %q", got, tt.want)
			}
		})
	}
}
