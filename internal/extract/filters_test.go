package extract

import (
	"math"
	"reflect"
	"testing"

	"github.com/ppiankov/brandpulse/internal/model"
)

func recordsFor(keyword string, n int) []model.MatchRecord {
	out := make([]model.MatchRecord, n)
	for i := range out {
		out[i] = model.MatchRecord{Forum: "f", Keyword: keyword, MatchedWord: keyword, Comment: keyword}
	}
	return out
}

func TestFilterRecordsByFrequency(t *testing.T) {
	var records []model.MatchRecord
	records = append(records, recordsFor("A", 150)...)
	records = append(records, recordsFor("B", 99)...)
	records = append(records, recordsFor("C", 100)...)

	res := FilterRecordsByFrequency(records, 100)

	if !reflect.DeepEqual(res.Dropped, []string{"B"}) {
		t.Errorf("expected dropped [B], got %v", res.Dropped)
	}
	if len(res.Kept) != 250 {
		t.Errorf("expected 250 kept records, got %d", len(res.Kept))
	}
	for _, r := range res.Kept {
		if r.Keyword == "B" {
			t.Fatal("expected every B record to be removed")
		}
	}
	if res.Counts["A"] != 150 || res.Counts["B"] != 99 || res.Counts["C"] != 100 {
		t.Errorf("unexpected counts %v", res.Counts)
	}
}

func TestFilterRecordsByFrequency_AllBelow(t *testing.T) {
	res := FilterRecordsByFrequency(append(recordsFor("A", 3), recordsFor("B", 5)...), 100)

	if len(res.Kept) != 0 {
		t.Errorf("expected no records kept, got %d", len(res.Kept))
	}
	// most frequent first
	if !reflect.DeepEqual(res.Dropped, []string{"B", "A"}) {
		t.Errorf("expected dropped [B A], got %v", res.Dropped)
	}
}

func TestFilterRecordsByFrequency_Empty(t *testing.T) {
	res := FilterRecordsByFrequency(nil, 100)
	if res.Dropped == nil {
		t.Error("expected a non-nil empty dropped list")
	}
	if len(res.Kept) != 0 || len(res.Dropped) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestFilterLowercase(t *testing.T) {
	records := []model.MatchRecord{
		{Keyword: "Giant", MatchedWord: "giant", Comment: "that climb was a giant effort"},
		{Keyword: "Giant", MatchedWord: "giant", Comment: "my Giant TCR is great"},
		{Keyword: "Trek", MatchedWord: "trek", Comment: "a long trek home"},
		{Keyword: "Rose", MatchedWord: "rose", Comment: "I rode my Rose, then got a rose"},
	}

	got := FilterLowercase(records, []string{"Giant", "Rose"})

	// Drops exempt matches whose lowercase literal occurs in the comment;
	// non-exempt brands are never touched.
	want := []model.MatchRecord{records[1], records[2]}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestFilterLowercase_NoExempt(t *testing.T) {
	records := recordsFor("Giant", 2)
	if got := FilterLowercase(records, nil); len(got) != 2 {
		t.Errorf("expected records unchanged, got %d", len(got))
	}
}

func TestMarkMultiple(t *testing.T) {
	records := []model.MatchRecord{
		{Keyword: "Trek", Comment: "trek and giant"},
		{Keyword: "Giant", Comment: "trek and giant"},
		{Keyword: "Trek", Comment: "only trek"},
	}

	got := MarkMultiple(records)
	if !got[0].Multiple || !got[1].Multiple {
		t.Error("expected shared comment records to be flagged")
	}
	if got[2].Multiple {
		t.Error("expected single comment record not flagged")
	}
	if records[0].Multiple {
		t.Error("expected input slice to stay untouched")
	}
}

func TestExactMentionShare(t *testing.T) {
	records := []model.MatchRecord{
		{Comment: "my Trek rocks"},
		{Comment: "my trek rocks"},
		{Comment: "Giant, obviously"},
		{Comment: "Specialized Tarmac"},
	}

	got := ExactMentionShare(records, []string{"Trek", "Giant", "Specialized"})
	if math.Abs(got-50) > 1e-9 {
		t.Errorf("expected 50%%, got %.2f", got)
	}

	if ExactMentionShare(nil, []string{"Trek"}) != 0 {
		t.Error("expected 0 for no records")
	}
}
