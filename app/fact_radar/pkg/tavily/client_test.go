package tavily

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/search"
)

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tv-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Topic != "news" || req.SearchDepth != "basic" || req.MaxResults != 10 {
			t.Errorf("defaults not applied: %+v", req)
		}
		w.Write([]byte(`{"results":[{"title":"T","url":"https://apnews.com/x","content":"c","score":0.9}]}`))
	}))
	defer srv.Close()

	c := NewClient("tv-key", 5, WithBaseURL(srv.URL))
	resp, err := c.Search(context.Background(), &search.Request{Query: "q", MaxResults: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].URL != "https://apnews.com/x" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestClient_Search_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient("bad", 5, WithBaseURL(srv.URL)).Search(context.Background(), &search.Request{Query: "q"})
	if !errors.Is(err, search.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}
