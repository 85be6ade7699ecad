// Package attachment resolves the file reference found in an optional
// spreadsheet column ("document_file" / "CertificateFile") into binary
// content to embed in the outgoing mail.
package attachment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Resolver turns a filename or remote locator into attachment bytes.
// Failures are terminal for the row that referenced the attachment, never
// for the whole dispatch.
type Resolver interface {
	Resolve(ctx context.Context, ref string) ([]byte, error)
}

// Store reads attachments from a local directory, or fetches them over HTTP
// when the reference is a URL.
type Store struct {
	Dir    string
	Client *http.Client
}

func NewStore(dir string) *Store {
	return &Store{
		Dir:    dir,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *Store) Resolve(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return s.fetch(ctx, ref)
	}

	// Base() so a crafted reference cannot escape the attachment directory.
	path := filepath.Join(s.Dir, filepath.Base(ref))
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("attachment %q not found: %w", ref, err)
	}
	return content, nil
}

func (s *Store) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("attachment fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment fetch failed: status %d for %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

var _ Resolver = (*Store)(nil)
