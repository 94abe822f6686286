package storage

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
)

// %PDF magic bytes make DetectContentType return application/pdf
var pdfContent = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF")

var pngContent = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func multipartFile(t *testing.T, fieldName, fileName string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/submit", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	return req.MultipartForm.File[fieldName][0]
}

func TestSaveAcceptsAllowedTypes(t *testing.T) {
	store, err := NewStore(t.TempDir(), 5<<20)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	name, err := store.Save(multipartFile(t, "passportFile", "scan.pdf", pdfContent))
	if err != nil {
		t.Fatalf("save pdf: %v", err)
	}
	if !strings.HasPrefix(name, "passport-") || !strings.HasSuffix(name, ".pdf") {
		t.Fatalf("unexpected stored name %s", name)
	}

	name, err = store.Save(multipartFile(t, "passportFile", "scan.png", pngContent))
	if err != nil {
		t.Fatalf("save png: %v", err)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Fatalf("unexpected stored name %s", name)
	}
}

func TestNormalizeContentType(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"application/pdf", "application/pdf"},
		{"text/html; charset=utf-8", "text/html"},
		{"IMAGE/PNG", "image/png"},
		{" image/jpeg ; boundary=x", "image/jpeg"},
	}
	for _, tc := range cases {
		if got := normalizeContentType(tc.in); got != tc.want {
			t.Fatalf("normalizeContentType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSaveRejectsUnsupportedType(t *testing.T) {
	store, err := NewStore(t.TempDir(), 5<<20)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	_, err = store.Save(multipartFile(t, "passportFile", "script.html", []byte("<html><body>hi</body></html>")))
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	store, err := NewStore(t.TempDir(), 64)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	big := append(append([]byte{}, pdfContent...), bytes.Repeat([]byte("a"), 128)...)
	_, err = store.Save(multipartFile(t, "passportFile", "big.pdf", big))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir(), 5<<20)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	for _, name := range []string{"../etc/passwd", "..", ".hidden", "a/b.pdf", ""} {
		if _, err := store.Path(name); !errors.Is(err, ErrFileNotFound) {
			t.Fatalf("expected ErrFileNotFound for %q, got %v", name, err)
		}
	}
}

func TestPathResolvesStoredFile(t *testing.T) {
	store, err := NewStore(t.TempDir(), 5<<20)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	name, err := store.Save(multipartFile(t, "passportFile", "scan.pdf", pdfContent))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	path, err := store.Path(name)
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if !strings.HasSuffix(path, name) {
		t.Fatalf("unexpected path %s", path)
	}
}
