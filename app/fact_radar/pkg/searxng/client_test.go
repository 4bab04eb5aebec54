package searxng

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/search"
)

func TestClient_Search_CapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.URL.Query().Get("format") != "json" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if got := r.URL.Query().Get("categories"); got != "news" {
			t.Errorf("categories = %q, want news", got)
		}
		w.Write([]byte(`{"results":[
			{"title":"a","url":"https://bbc.com/1"},
			{"title":"b","url":"https://bbc.com/2"},
			{"title":"c","url":"https://bbc.com/3"}]}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, 5).Search(context.Background(), &search.Request{Query: "q", MaxResults: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("got %d results, want 2", len(resp.Results))
	}
}
