package encoder

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ConsignmentExtraction/pkg/models"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D}

func TestEncode(t *testing.T) {
	got, err := Encode(models.Image{Name: "a.jpg", Data: []byte("abc")})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if got != "YWJj" {
		t.Errorf("Encode() = %q, want %q", got, "YWJj")
	}

	if _, err := Encode(models.Image{Name: "empty.jpg"}); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Encode(empty) error = %v, want ErrEmptyImage", err)
	}
}

func TestPickMIME(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		file     string
		data     []byte
		expected string
	}{
		{name: "Declared wins", declared: "image/webp", file: "x.png", expected: "image/webp"},
		{name: "Octet stream is ignored", declared: "application/octet-stream", file: "x.png", expected: "image/png"},
		{name: "Extension", file: "scan.JPEG", expected: "image/jpeg"},
		{name: "Sniffed", file: "upload", data: pngHeader, expected: "image/png"},
		{name: "Fallback", file: "upload", expected: DefaultMIMEType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PickMIME(tt.declared, tt.file, tt.data); got != tt.expected {
				t.Errorf("PickMIME(%q, %q) = %q, want %q", tt.declared, tt.file, got, tt.expected)
			}
		})
	}
}

func TestFromReaderLimit(t *testing.T) {
	if _, err := FromReader("big.png", "", strings.NewReader("0123456789"), 5); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("FromReader() error = %v, want ErrImageTooLarge", err)
	}

	img, err := FromReader("ok.png", "", strings.NewReader("01234"), 5)
	if err != nil {
		t.Fatalf("FromReader() error = %v", err)
	}
	if string(img.Data) != "01234" || img.MIMEType != "image/png" {
		t.Errorf("FromReader() = %+v", img)
	}

	if _, err := FromReader("none.png", "", strings.NewReader(""), 0); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("FromReader(empty) error = %v, want ErrEmptyImage", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gps")
	if err := os.WriteFile(path, pngHeader, 0o600); err != nil {
		t.Fatal(err)
	}

	img, err := Load(path, 0)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if img.Name != "gps" || img.MIMEType != "image/png" {
		t.Errorf("Load() = %q %q", img.Name, img.MIMEType)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.jpg"), 0); err == nil {
		t.Error("Load(missing) expected an error")
	}
}
