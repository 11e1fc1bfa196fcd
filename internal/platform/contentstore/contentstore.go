// Package contentstore provides content-addressed blob storage for medical
// report payloads. It defines the Store interface, an HTTP implementation
// speaking an IPFS-style add/cat API, and an in-memory implementation for
// testing and development.
package contentstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no blob exists for a content identifier.
	ErrNotFound = errors.New("content not found")
	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("content store unavailable")
)

// Store is the contract for content-addressed blob backends. Put persists a
// payload and returns its content-derived identifier; Get returns the exact
// bytes previously stored under that identifier.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Get(ctx context.Context, contentID string) ([]byte, error)
}

// ---------------------------------------------------------------------------
// HTTP implementation
// ---------------------------------------------------------------------------

// HTTPStore talks to an external content-addressed store over its HTTP API
// (POST /api/v0/add for ingestion, POST /api/v0/cat?arg=<id> for retrieval).
// The underlying client is created lazily on first use and reused; the
// sync.Once guard keeps concurrent first callers from racing the init.
type HTTPStore struct {
	baseURL string
	timeout time.Duration

	once   sync.Once
	client *http.Client
}

// NewHTTPStore creates an HTTPStore for the given API base URL.
func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPStore{baseURL: baseURL, timeout: timeout}
}

func (s *HTTPStore) httpClient() *http.Client {
	s.once.Do(func() {
		s.client = &http.Client{Timeout: s.timeout}
	})
	return s.client
}

// addResponse is the JSON envelope returned by the add endpoint.
type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Put uploads the payload as a multipart file and returns the identifier the
// store derived from its content.
func (s *HTTPStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v0/add", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: add returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var out addResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decoding add response: %v", ErrUnavailable, err)
	}
	if out.Hash == "" {
		return "", fmt.Errorf("%w: add response missing hash", ErrUnavailable)
	}
	return out.Hash, nil
}

// Get retrieves the payload stored under contentID.
func (s *HTTPStore) Get(ctx context.Context, contentID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v0/cat?arg="+contentID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: reading cat response: %v", ErrUnavailable, err)
		}
		return data, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: cat returned status %d", ErrUnavailable, resp.StatusCode)
	}
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

// MemStore is a thread-safe in-memory content-addressed store. Identifiers
// are "sha256:<hex>" of the payload, so storing identical bytes twice yields
// the same identifier.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemStore returns a ready-to-use MemStore.
func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

func (s *MemStore) Put(_ context.Context, _ string, data []byte) (string, error) {
	h := sha256.Sum256(data)
	id := fmt.Sprintf("sha256:%x", h)

	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	s.blobs[id] = cp
	s.mu.Unlock()

	return id, nil
}

func (s *MemStore) Get(_ context.Context, contentID string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.blobs[contentID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}
