package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/ppiankov/brandpulse/internal/model"
)

type fakeSource struct {
	listings map[string][]string // "forum/listing" -> ids
	failPost string
}

func (f *fakeSource) PostIDs(ctx context.Context, forum, listing string) ([]model.Post, error) {
	var posts []model.Post
	for _, id := range f.listings[forum+"/"+listing] {
		posts = append(posts, model.Post{ID: id})
	}
	return posts, nil
}

func (f *fakeSource) Comments(ctx context.Context, postID string) ([]model.Comment, error) {
	if postID == f.failPost {
		return nil, errors.New("boom")
	}
	return []model.Comment{{Forum: "cycling", Body: "on " + postID}}, nil
}

func TestCollector_Collect(t *testing.T) {
	source := &fakeSource{
		listings: map[string][]string{
			"cycling/hot":   {"a", "b"},
			"cycling/new":   {"b", "c"},
			"RoadBikes/hot": {"d", "a"},
		},
		failPost: "c",
	}

	collector := NewCollector(source, []string{"cycling", "RoadBikes"}, []string{"hot", "new"}, 2, nil)
	res, err := collector.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	expectedIDs := []string{"a", "b", "c", "d"}
	if len(res.PostIDs) != len(expectedIDs) {
		t.Fatalf("expected ids %v, got %v", expectedIDs, res.PostIDs)
	}
	for i, id := range expectedIDs {
		if res.PostIDs[i] != id {
			t.Errorf("expected id %s at %d, got %s", id, i, res.PostIDs[i])
		}
	}

	if len(res.Comments) != 3 {
		t.Errorf("expected 3 comments, got %d", len(res.Comments))
	}
	if res.Comments[0].Body != "on a" || res.Comments[2].Body != "on d" {
		t.Errorf("expected comments in post order, got %+v", res.Comments)
	}
	if _, ok := res.Failed["c"]; !ok || len(res.Failed) != 1 {
		t.Errorf("expected only c to fail, got %v", res.Failed)
	}
}

func TestCollector_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	collector := NewCollector(&fakeSource{}, []string{"cycling"}, []string{"hot"}, 1, nil)
	if _, err := collector.CollectPosts(ctx, []string{"a"}); err == nil {
		t.Error("expected error for cancelled context")
	}
}
