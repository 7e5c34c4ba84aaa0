// Package blob is the object store for uploads such as bill PDFs. Objects are
// addressed by slash-separated keys and exposed at <base_url>/files/<key>.
// Storage goes through a gocloud.dev bucket kept on the local filesystem.
package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"
)

// PathPrefix is the URL path under which objects are served.
const PathPrefix = "/files/"

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("object not found")

// Store keeps objects in a bucket.
type Store struct {
	bucket  *blob.Bucket
	baseURL string
}

// New opens a store rooted at dir, creating it if needed. baseURL is the
// public origin objects are served from, e.g. http://localhost:8080.
func New(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating files directory %s: %w", dir, err)
	}
	bucket, err := fileblob.OpenBucket(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("opening files bucket %s: %w", dir, err)
	}
	return &Store{bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Close releases the bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("invalid object key %q", key)
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}

// URL returns the retrievable URL for key.
func (s *Store) URL(key string) string {
	return s.baseURL + PathPrefix + key
}

// Put writes data under key, replacing any existing object, and returns the
// object's URL.
func (s *Store) Put(key string, data []byte) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	opts := &blob.WriterOptions{ContentType: contentType(key)}
	if err := s.bucket.WriteAll(context.Background(), key, data, opts); err != nil {
		return "", fmt.Errorf("writing object %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Open returns a reader for the object stored under key. The caller closes it.
func (s *Store) Open(ctx context.Context, key string) (*blob.Reader, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	r, err := s.bucket.NewReader(ctx, key, nil)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("opening object %s: %w", key, err)
	}
	return r, nil
}

// KeyFromURL derives an object key from a URL returned by Put. Only the path
// is used, so objects survive a change of host.
func KeyFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing object url: %w", err)
	}
	key, ok := strings.CutPrefix(u.Path, PathPrefix)
	if !ok || key == "" {
		return "", fmt.Errorf("not an object url: %q", raw)
	}
	return key, nil
}

// Delete removes the object addressed by url.
func (s *Store) Delete(url string) error {
	key, err := KeyFromURL(url)
	if err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	err = s.bucket.Delete(context.Background(), key)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("deleting object %s: %w", key, err)
	}
	return nil
}

func contentType(key string) string {
	if path.Ext(key) == ".pdf" {
		return "application/pdf"
	}
	return ""
}
