package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/brandpulse/internal/model"
)

const commentsThread = `[
 {"kind":"Listing","data":{"children":[{"kind":"t3","data":{"id":"abc"}}]}},
 {"kind":"Listing","data":{"children":[
  {"kind":"t1","data":{"subreddit":"cycling","body":"My Trek is great &amp; fast"}},
  {"kind":"t1","data":{"subreddit":"cycling"}},
  {"kind":"more","data":{"count":12}}
 ]}}
]`

func newTestClient(t *testing.T, server *httptest.Server, pages int, since string) *Client {
	t.Helper()
	cfg := testIngestConfig()
	cfg.BaseURL = server.URL + "/"
	cfg.Pages = pages
	cfg.PageSize = 100
	cfg.Since = since
	client, err := NewClient(NewFetcher(cfg, nil, nil), cfg, nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestClient_ListingURL(t *testing.T) {
	c := &Client{baseURL: "https://www.reddit.com", pageSize: 100}

	got := c.ListingURL("cycling", "new", "")
	if got != "https://www.reddit.com/r/cycling/new.json?limit=100&t=year" {
		t.Errorf("unexpected url %s", got)
	}

	got = c.ListingURL("RoadBikes", "top", "t3_xyz")
	if got != "https://www.reddit.com/r/RoadBikes/top/.json?after=t3_xyz&limit=100&t=year" {
		t.Errorf("unexpected url %s", got)
	}
}

func TestClient_PostIDs_Pagination(t *testing.T) {
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/r/cycling/hot.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "100" || r.URL.Query().Get("t") != "year" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		switch r.URL.Query().Get("after") {
		case "":
			_, _ = fmt.Fprintf(w, `{"data":{"after":"t3_p2","children":[
				{"kind":"t3","data":{"id":"p1","created":%d}},
				{"kind":"t3","data":{"id":"old","created":%d}}]}}`, cutoff+10, cutoff-10)
		case "t3_p2":
			_, _ = fmt.Fprintf(w, `{"data":{"after":null,"children":[
				{"kind":"t3","data":{"id":"p2","created":%d}}]}}`, cutoff)
		default:
			t.Errorf("unexpected cursor %s", r.URL.Query().Get("after"))
		}
	}))
	defer server.Close()

	client := newTestClient(t, server, 10, "2024-01-01")
	posts, err := client.PostIDs(context.Background(), "cycling", "hot")
	if err != nil {
		t.Fatalf("PostIDs failed: %v", err)
	}

	if len(posts) != 2 || posts[0].ID != "p1" || posts[1].ID != "p2" {
		t.Errorf("expected [p1 p2], got %+v", posts)
	}
	if requests.Load() != 2 {
		t.Errorf("expected pagination to stop at null cursor after 2 requests, got %d", requests.Load())
	}
}

func TestClient_PostIDs_PageLimit(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		_, _ = fmt.Fprintf(w, `{"data":{"after":"t3_%d","children":[{"kind":"t3","data":{"id":"p%d","created":1}}]}}`, n, n)
	}))
	defer server.Close()

	client := newTestClient(t, server, 3, "")
	posts, err := client.PostIDs(context.Background(), "cycling", "new")
	if err != nil {
		t.Fatalf("PostIDs failed: %v", err)
	}
	if len(posts) != 3 {
		t.Errorf("expected 3 posts from 3 pages, got %d", len(posts))
	}
	if requests.Load() != 3 {
		t.Errorf("expected 3 requests, got %d", requests.Load())
	}
}

func TestClient_PostIDs_FailedPageSkipped(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = fmt.Fprint(w, `{"data":{"after":null,"children":[{"kind":"t3","data":{"id":"p1","created":1}}]}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server, 2, "")
	posts, err := client.PostIDs(context.Background(), "cycling", "new")
	if err != nil {
		t.Fatalf("PostIDs failed: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "p1" {
		t.Errorf("expected the second round to recover p1, got %+v", posts)
	}
}

func TestClient_Comments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/comments/abc.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = fmt.Fprint(w, commentsThread)
	}))
	defer server.Close()

	client := newTestClient(t, server, 1, "")
	comments, err := client.Comments(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Comments failed: %v", err)
	}

	expected := []model.Comment{
		{Forum: "cycling", Body: "My Trek is great &amp; fast"},
		{Forum: "cycling", Body: ""},
	}
	if len(comments) != len(expected) {
		t.Fatalf("expected %d comments, got %d", len(expected), len(comments))
	}
	for i := range expected {
		if comments[i] != expected[i] {
			t.Errorf("expected %+v, got %+v", expected[i], comments[i])
		}
	}
}

func TestClient_Comments_ShortThread(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `[{"kind":"Listing","data":{"children":[]}}]`)
	}))
	defer server.Close()

	client := newTestClient(t, server, 1, "")
	_, err := client.Comments(context.Background(), "abc")
	if err == nil || !strings.Contains(err.Error(), "comment listings") {
		t.Errorf("expected short thread error, got %v", err)
	}
}

func TestNewClient_BadSince(t *testing.T) {
	cfg := testIngestConfig()
	cfg.Since = "yesterday"
	if _, err := NewClient(nil, cfg, nil); err == nil {
		t.Error("expected error for invalid since")
	}
}
