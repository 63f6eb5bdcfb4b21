// Package uploads is the image-store collaborator: it accepts an uploaded
// file and returns a stable URL. Task creation falls back to PlaceholderURL
// when no file is attached.
package uploads

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PlaceholderURL is used for tasks created without an image.
const PlaceholderURL = "https://storage.googleapis.com/kidslikev2_bucket/Rectangle%2025.png"

// Store saves an uploaded file and returns the URL it will be served from.
type Store interface {
	Save(filename string, r io.Reader) (string, error)
}

// DiskStore writes uploads to a local directory served under baseURL.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating upload directory: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Save stores the file under a random name, keeping the original extension,
// and returns its public URL.
func (s *DiskStore) Save(filename string, r io.Reader) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	name := hex.EncodeToString(buf) + strings.ToLower(filepath.Ext(filename))

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return s.baseURL + "/" + name, nil
}
