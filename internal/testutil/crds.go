package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// CRDSServer serves mappings and references the way the reference server's
// unchecked_get endpoint does.
type CRDSServer struct {
	*httptest.Server

	mu    sync.Mutex
	files map[string][]byte
	gets  []string
}

// NewCRDSServer starts a server; files maps "mappings/<obs>/<name>" or
// "references/<obs>/<name>" to content.
func NewCRDSServer(t *testing.T, files map[string][]byte) *CRDSServer {
	t.Helper()
	s := &CRDSServer{files: files}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/unchecked_get/")
		s.mu.Lock()
		s.gets = append(s.gets, key)
		body, ok := s.files[key]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(s.Close)
	return s
}

// Gets lists the requested keys in order.
func (s *CRDSServer) Gets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.gets...)
}

// ReadFile is os.ReadFile that fails the test on error.
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}
