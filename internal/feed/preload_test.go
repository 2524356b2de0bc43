package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHTTPPreloader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte{0xff, 0xd8, 0xff})
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewHTTPPreloader(time.Second)
	ctx := context.Background()

	assert.NoError(t, p.Preload(ctx, srv.URL+"/ok.jpg"))

	err := p.Preload(ctx, srv.URL+"/missing.jpg")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	err = p.Preload(ctx, srv.URL+"/page.html")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "content type")
}

func TestHTTPPreloader_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewHTTPPreloader(20 * time.Millisecond)
	assert.Error(t, p.Preload(context.Background(), srv.URL+"/slow.jpg"))
}
