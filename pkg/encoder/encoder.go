package encoder

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"ConsignmentExtraction/pkg/models"
)

var (
	ErrEmptyImage    = errors.New("image is empty")
	ErrImageTooLarge = errors.New("image exceeds size limit")
)

// DefaultMIMEType is used when nothing better can be determined
const DefaultMIMEType = "image/jpeg"

// Encode returns the standard base64 encoding of the image bytes
func Encode(img models.Image) (string, error) {
	if len(img.Data) == 0 {
		return "", fmt.Errorf("encode %q: %w", img.Name, ErrEmptyImage)
	}
	return base64.StdEncoding.EncodeToString(img.Data), nil
}

// Load reads an image from disk
func Load(path string, maxBytes int64) (models.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Image{}, fmt.Errorf("error opening image: %w", err)
	}
	defer f.Close()

	return FromReader(filepath.Base(path), "", f, maxBytes)
}

// FromReader reads an image from r. A non-positive maxBytes disables the size check.
func FromReader(name, declaredMIME string, r io.Reader, maxBytes int64) (models.Image, error) {
	var data []byte
	var err error
	if maxBytes > 0 {
		data, err = io.ReadAll(io.LimitReader(r, maxBytes+1))
	} else {
		data, err = io.ReadAll(r)
	}
	if err != nil {
		return models.Image{}, fmt.Errorf("error reading image %q: %w", name, err)
	}
	if len(data) == 0 {
		return models.Image{}, fmt.Errorf("read %q: %w", name, ErrEmptyImage)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return models.Image{}, fmt.Errorf("read %q: %w (%d bytes)", name, ErrImageTooLarge, maxBytes)
	}

	return models.Image{
		Name:     name,
		MIMEType: PickMIME(declaredMIME, name, data),
		Data:     data,
	}, nil
}

// PickMIME takes the declared type first, then the file extension, then sniffs the bytes
func PickMIME(declared, name string, data []byte) string {
	if d := strings.TrimSpace(declared); d != "" && d != "application/octet-stream" {
		return d
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".pdf":
		return "application/pdf"
	}

	if len(data) > 0 {
		if sniffed := http.DetectContentType(data); sniffed != "application/octet-stream" {
			// DetectContentType may append parameters such as "; charset=utf-8"
			if i := strings.IndexByte(sniffed, ';'); i >= 0 {
				sniffed = sniffed[:i]
			}
			return sniffed
		}
	}
	return DefaultMIMEType
}
