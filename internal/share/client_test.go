package share

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		ImageTimeout: 2 * time.Second,
		MaxRetries:   0,
		ListingTTL:   0,
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{BaseURL: "https://share.example.com/"})

	if client.config.BaseURL != "https://share.example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", client.config.BaseURL)
	}
	if client.config.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", client.config.Timeout, DefaultTimeout)
	}
	if client.config.ImageTimeout != DefaultImageTimeout {
		t.Errorf("ImageTimeout = %v, want %v", client.config.ImageTimeout, DefaultImageTimeout)
	}
	if client.listings != nil {
		t.Error("listing cache created with zero TTL")
	}
}

func TestFolderAndFileURLs(t *testing.T) {
	client := NewClient(testConfig("https://share.example.com"))

	if got := client.FolderURL("aB3dEf7hIj"); got != "https://share.example.com/folders/aB3dEf7hIj" {
		t.Errorf("FolderURL = %q", got)
	}
	if got := client.FileURL("kL9mNo2pQr"); got != "https://share.example.com/files/kL9mNo2pQr" {
		t.Errorf("FileURL = %q", got)
	}
}

func TestFetchListingSuccess(t *testing.T) {
	const page = `<html><body><tr data-id="aB3dEf7hIj"><strong>song.mp3</strong></tr></body></html>`

	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(page))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	got, err := client.FetchListing(context.Background(), "aB3dEf7hIj")
	if err != nil {
		t.Fatalf("FetchListing failed: %v", err)
	}
	if got != page {
		t.Errorf("listing = %q, want %q", got, page)
	}
	if !strings.Contains(gotUA, "Mozilla/5.0") {
		t.Errorf("User-Agent = %q, want browser identity", gotUA)
	}
	if !strings.Contains(gotAccept, "text/html") {
		t.Errorf("Accept = %q, want text/html", gotAccept)
	}
}

func TestFetchListingHardFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.FetchListing(context.Background(), "aB3dEf7hIj")
	if err == nil {
		t.Fatal("FetchListing succeeded, want error")
	}

	var shareErr *Error
	if !errors.As(err, &shareErr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if shareErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", shareErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "HTTP 403 Forbidden") {
		t.Errorf("message %q missing status detail", err.Error())
	}
	if shareErr.IsRetryable() {
		t.Error("403 reported as retryable")
	}
}

func TestFetchListingNoRetryOnPermanentFailure(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	config := testConfig(server.URL)
	config.MaxRetries = 3
	client := NewClient(config)

	if _, err := client.FetchListing(context.Background(), "aB3dEf7hIj"); err == nil {
		t.Fatal("FetchListing succeeded, want error")
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestFetchListingRetriesServerErrors(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	config := testConfig(server.URL)
	config.MaxRetries = 2
	client := NewClient(config)

	got, err := client.FetchListing(context.Background(), "aB3dEf7hIj")
	if err != nil {
		t.Fatalf("FetchListing failed after retry: %v", err)
	}
	if got != "<html>ok</html>" {
		t.Errorf("listing = %q", got)
	}
	if n := requests.Load(); n != 2 {
		t.Errorf("server saw %d requests, want 2", n)
	}
}

func TestFetchListingCache(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("<html>cached</html>"))
	}))
	defer server.Close()

	config := testConfig(server.URL)
	config.ListingTTL = time.Minute
	client := NewClient(config)

	for i := 0; i < 3; i++ {
		got, err := client.FetchListing(context.Background(), "aB3dEf7hIj")
		if err != nil {
			t.Fatalf("FetchListing %d failed: %v", i, err)
		}
		if got != "<html>cached</html>" {
			t.Errorf("listing %d = %q", i, got)
		}
	}

	if n := requests.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1 (cache miss only)", n)
	}
	if n := client.CachedListings(); n != 1 {
		t.Errorf("CachedListings = %d, want 1", n)
	}

	client.FlushListings()
	if n := client.CachedListings(); n != 0 {
		t.Errorf("CachedListings after flush = %d, want 0", n)
	}
	if _, err := client.FetchListing(context.Background(), "aB3dEf7hIj"); err != nil {
		t.Fatalf("FetchListing after flush failed: %v", err)
	}
	if n := requests.Load(); n != 2 {
		t.Errorf("server saw %d requests after flush, want 2", n)
	}
}

func TestFetchListingCacheDisabled(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("<html>fresh</html>"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	for i := 0; i < 2; i++ {
		if _, err := client.FetchListing(context.Background(), "aB3dEf7hIj"); err != nil {
			t.Fatalf("FetchListing %d failed: %v", i, err)
		}
	}
	if n := requests.Load(); n != 2 {
		t.Errorf("server saw %d requests, want 2 with caching disabled", n)
	}
}

func TestFetchListingContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
		w.Write([]byte("late"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := client.FetchListing(ctx, "aB3dEf7hIj")
	if err == nil {
		t.Fatal("FetchListing succeeded with cancelled context")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("cancelled fetch took %v", elapsed)
	}
}

func TestFetchImage(t *testing.T) {
	imageData := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(imageData)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	body, contentType, err := client.FetchImage(context.Background(), server.URL+"/files/cD8eFg1hIj")
	if err != nil {
		t.Fatalf("FetchImage failed: %v", err)
	}
	if string(body) != string(imageData) {
		t.Errorf("body = %v, want %v", body, imageData)
	}
	if contentType != "image/jpeg" {
		t.Errorf("contentType = %q, want image/jpeg", contentType)
	}
}

func TestFetchImageFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, _, err := client.FetchImage(context.Background(), server.URL+"/files/missing")
	if err == nil {
		t.Fatal("FetchImage succeeded, want error")
	}

	var shareErr *Error
	if !errors.As(err, &shareErr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if shareErr.Operation != "image" {
		t.Errorf("Operation = %q, want image", shareErr.Operation)
	}
}

func TestStream(t *testing.T) {
	audio := strings.Repeat("abcdefgh", 1024)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/aB3dEf7hIj" {
			http.NotFound(w, r)
			return
		}
		if rng := r.Header.Get("Range"); rng != "" {
			w.Header().Set("Content-Range", "bytes 0-7/8192")
			w.WriteHeader(http.StatusPartialContent)
			w.Write([]byte(audio[:8]))
			return
		}
		w.Write([]byte(audio))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	t.Run("full stream", func(t *testing.T) {
		resp, err := client.Stream(context.Background(), "aB3dEf7hIj", "")
		if err != nil {
			t.Fatalf("Stream failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("range forwarded", func(t *testing.T) {
		resp, err := client.Stream(context.Background(), "aB3dEf7hIj", "bytes=0-7")
		if err != nil {
			t.Fatalf("Stream failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusPartialContent {
			t.Errorf("status = %d, want 206", resp.StatusCode)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := client.Stream(context.Background(), "zZ9yXw8vUt", "")
		if err == nil {
			t.Fatal("Stream succeeded for missing file")
		}
		var shareErr *Error
		if !errors.As(err, &shareErr) {
			t.Fatalf("error type = %T, want *Error", err)
		}
		if shareErr.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode = %d, want 404", shareErr.StatusCode)
		}
	})
}

func TestErrorRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{0, true},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusGatewayTimeout, true},
		{http.StatusBadRequest, false},
		{http.StatusForbidden, false},
		{http.StatusNotFound, false},
		{http.StatusGone, false},
	}

	for _, tt := range tests {
		err := &Error{Operation: "listing", URL: "http://x", StatusCode: tt.status}
		if got := err.IsRetryable(); got != tt.want {
			t.Errorf("IsRetryable(status=%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &Error{Operation: "listing", URL: "http://x", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is failed to find wrapped error")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("message %q missing wrapped error", err.Error())
	}
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
		{10, 5 * time.Second},
	}

	for _, tt := range tests {
		if got := backoffDelay(tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
