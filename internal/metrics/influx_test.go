package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestInfluxPublisher_WritesLineProtocol(t *testing.T) {
	var (
		mu   sync.Mutex
		body string
		path string
	)
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		body, path = string(b), r.URL.Path
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer s.Close()

	p := NewInfluxPublisher(s.URL, "tok", "org", "bucket", "shop", "prod")
	defer p.Close()

	err := p.Publish(context.Background(), []Datum{Count(Success, 0), Count(Error, 1)})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if path != "/api/v2/write" {
		t.Fatalf("unexpected write path %q", path)
	}
	if !strings.HasPrefix(body, "canary,environment=prod,project=shop ") {
		t.Fatalf("unexpected measurement/tags: %q", body)
	}
	if !strings.Contains(body, "Error=1") || !strings.Contains(body, "Success=0") {
		t.Fatalf("missing fields: %q", body)
	}
}

func TestInfluxPublisher_ServerErrorSurfaces(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"internal error","message":"boom"}`, http.StatusInternalServerError)
	}))
	defer s.Close()

	p := NewInfluxPublisher(s.URL, "tok", "org", "bucket", "shop", "prod")
	defer p.Close()

	if err := p.Publish(context.Background(), []Datum{Count(Success, 1)}); err == nil {
		t.Fatalf("expected write error")
	}
}
