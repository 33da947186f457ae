package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeader builds a real *multipart.FileHeader by round-tripping a form.
func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="productImage"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, "/", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["productImage"][0]
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name, filename, contentType string
		want                        error
	}{
		{"png", "mug.png", "image/png", nil},
		{"upper case jpg", "MUG.JPG", "image/jpeg", nil},
		{"webp", "mug.webp", "image/webp", nil},
		{"exe", "setup.exe", "application/octet-stream", ErrUnsupportedType},
		{"exe posing as png", "setup.exe", "image/png", ErrUnsupportedType},
		{"png with wrong type", "mug.png", "text/plain", ErrUnsupportedType},
		{"no extension", "mug", "image/png", ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(fileHeader(t, tt.filename, tt.contentType, []byte("data")))
			assert.ErrorIs(t, err, tt.want)
			if tt.want == nil {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_TooLarge(t *testing.T) {
	fh := fileHeader(t, "big.png", "image/png", bytes.Repeat([]byte{1}, MaxImageSize+1))
	assert.ErrorIs(t, Validate(fh), ErrTooLarge)
}

func TestDiskStore_SaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	url, err := s.Save(fileHeader(t, "mug.PNG", "image/png", []byte("png-bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/product-"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	stored := filepath.Join(s.Dir(), filepath.Base(url))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.Remove(url))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Remove(url), "removing twice is a no-op")
	assert.NoError(t, s.Remove("https://cdn.example.com/x.png"))
}

func TestDiskStore_SaveRejectsBeforeWriting(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(fileHeader(t, "setup.exe", "application/x-msdownload", []byte("MZ")))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
