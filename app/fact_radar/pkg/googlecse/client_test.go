package googlecse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/search"
)

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "k1" || q.Get("cx") != "cx1" {
			t.Errorf("unexpected credentials: %v", q)
		}
		if q.Get("num") != "10" {
			t.Errorf("num = %q, want 10 (capped)", q.Get("num"))
		}
		if q.Get("q") != "senate probe site:rappler.com" {
			t.Errorf("q = %q", q.Get("q"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"title":"Senate opens probe","link":"https://www.rappler.com/a","snippet":"The Senate..."}]}`))
	}))
	defer srv.Close()

	c := NewClient("k1", "cx1", 5, WithBaseURL(srv.URL))
	resp, err := c.Search(context.Background(), &search.Request{Query: "senate probe site:rappler.com", MaxResults: 25})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := []search.Result{{Title: "Senate opens probe", URL: "https://www.rappler.com/a", Content: "The Senate..."}}
	if diff := cmp.Diff(want, resp.Results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_Search_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429}}`))
	}))
	defer srv.Close()

	c := NewClient("k1", "cx1", 5, WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), &search.Request{Query: "x"})
	if !errors.Is(err, search.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestClient_Search_NoItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"searchInformation":{"totalResults":"0"}}`))
	}))
	defer srv.Close()

	resp, err := NewClient("k", "cx", 5, WithBaseURL(srv.URL)).Search(context.Background(), &search.Request{Query: "x"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("got %d results, want 0", len(resp.Results))
	}
}
