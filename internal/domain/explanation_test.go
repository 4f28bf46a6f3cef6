package domain

import "testing"

func TestExplanation_InsertionOrder(t *testing.T) {
	e := NewExplanation()
	e.Add("third sentence", 0.911)
	e.Add("first sentence", 0.542)
	e.Add("second sentence", 0.137)

	spans := e.Spans()
	want := []string{"third sentence", "first sentence", "second sentence"}
	if len(spans) != len(want) {
		t.Fatalf("got %d spans, want %d", len(spans), len(want))
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("spans[%d] = %q, want %q", i, spans[i], want[i])
		}
	}
}

func TestExplanation_DuplicateSpanOverwrites(t *testing.T) {
	e := NewExplanation()
	e.Add("repeated", 0.5)
	e.Add("other", 0.4)
	e.Add("repeated", 0.1)

	if e.Len() != 2 {
		t.Fatalf("len: got %d, want 2", e.Len())
	}
	score, ok := e.Score("repeated")
	if !ok || score != 0.1 {
		t.Errorf("score for duplicate: got %v (%v), want 0.1", score, ok)
	}
}
