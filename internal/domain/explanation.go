package domain

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// AttributionSpan is a raw span returned by a provider's explain call:
// a half-open range into the prompt plus an attribution score. Provider
// ordering is preserved at this layer; ranking happens downstream.
type AttributionSpan struct {
	Start  int
	Length int
	Score  float64
}

// Explanation maps literal prompt spans to attribution scores. Insertion
// order is rank order; iteration never re-sorts. Keyed by span text, so
// a later duplicate span overwrites an earlier one — inherited behavior
// callers rely on.
type Explanation struct {
	spans *orderedmap.OrderedMap[string, float64]
}

// NewExplanation creates an empty explanation.
func NewExplanation() *Explanation {
	return &Explanation{spans: orderedmap.New[string, float64]()}
}

// Add records a span with its score, overwriting a duplicate span text
// while keeping its original position.
func (e *Explanation) Add(span string, score float64) {
	e.spans.Set(span, score)
}

// Len returns the number of distinct spans.
func (e *Explanation) Len() int {
	return e.spans.Len()
}

// Score returns the score for a span text.
func (e *Explanation) Score(span string) (float64, bool) {
	return e.spans.Get(span)
}

// Spans iterates span texts in rank order.
func (e *Explanation) Spans() []string {
	out := make([]string, 0, e.spans.Len())
	for pair := e.spans.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// MarshalJSON renders the mapping in rank order.
func (e *Explanation) MarshalJSON() ([]byte, error) {
	return e.spans.MarshalJSON()
}
