package annostore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/formulatag/internal/annotation"
)

func TestGetAnnotations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/annotations/1808.02342" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		w.Write([]byte(`{"m1":"ID","m2":"CL"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	m, err := c.GetAnnotations(context.Background(), "1808.02342")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Equal(annotation.Map{"m1": "ID", "m2": "CL"}) {
		t.Errorf("unexpected map %v", m)
	}
}

func TestGetAnnotations_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	m, err := NewClient(srv.URL, "").GetAnnotations(context.Background(), "new-doc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty map, got %v", m)
	}
}

func TestGetAnnotations_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["not","a","map"]`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").GetAnnotations(context.Background(), "d")
	if !errors.Is(err, annotation.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestSaveAnnotations(t *testing.T) {
	var gotBody string
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").SaveAnnotations(context.Background(), "d", annotation.Map{"a": "P"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("expected PUT, got %s", gotMethod)
	}
	if gotBody != `{"a":"P"}` {
		t.Errorf("unexpected body %q", gotBody)
	}
}

func TestSaveAnnotations_ServerErrorRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").SaveAnnotations(context.Background(), "d", annotation.Map{})
	if !IsRetryable(err) {
		t.Errorf("expected retryable error, got %v", err)
	}
}

func TestSaveAnnotations_BadRequestNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").SaveAnnotations(context.Background(), "d", annotation.Map{})
	if err == nil || IsRetryable(err) {
		t.Errorf("expected non-retryable error, got %v", err)
	}
}

func TestRandomParagraph(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/paragraph/random" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"html":"<p><math id=\"m1\"></math></p>","filename":"p1.html","annotations":{"m1":"NUM"}}`))
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL, "").RandomParagraph(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Filename != "p1.html" || p.Annotations["m1"] != "NUM" {
		t.Errorf("unexpected paragraph %+v", p)
	}
}

func TestGetParagraph_NoAnnotations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"html":"<p></p>","filename":"p2.html"}`))
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL, "").GetParagraph(context.Background(), "p2.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Annotations == nil || len(p.Annotations) != 0 {
		t.Errorf("expected empty non-nil map, got %v", p.Annotations)
	}
}

func TestVocabulary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tags":[{"id":"U","name":"U","color":"#ff0","key":"5"}],"default":"U"}`))
	}))
	defer srv.Close()

	v, err := NewClient(srv.URL, "").Vocabulary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Default != "U" || len(v.Tags) != 1 {
		t.Errorf("unexpected vocabulary %+v", v)
	}
}

func TestTransportErrorRetryable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewClient(url, "").SaveAnnotations(context.Background(), "d", annotation.Map{})
	if !IsRetryable(err) {
		t.Errorf("expected retryable transport error, got %v", err)
	}
}

func TestRetryingSaver_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := &RetryingSaver{
		Client:   NewClient(srv.URL, ""),
		Attempts: 3,
		backoff:  func(int) time.Duration { return time.Millisecond },
	}
	if err := s.SaveAnnotations(context.Background(), "d", annotation.Map{"a": "U"}); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestRetryingSaver_StopsOnPermanentFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad id", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := &RetryingSaver{
		Client:   NewClient(srv.URL, ""),
		Attempts: 5,
		backoff:  func(int) time.Duration { return time.Millisecond },
	}
	if err := s.SaveAnnotations(context.Background(), "d", annotation.Map{}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single call, got %d", calls.Load())
	}
}

func TestBackoff_Bounds(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		d := Backoff(attempt)
		if d < time.Second || d > 45*time.Second {
			t.Errorf("attempt %d: backoff %v out of range", attempt, d)
		}
	}
}
