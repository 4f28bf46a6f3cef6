package domain

// Document is a unit of ingestable text with caller-supplied metadata.
// The vector store copies it on ingestion; instances are never shared
// across requests.
type Document struct {
	Content  string
	Metadata string
}

// ScoredDocument pairs a retrieved document with its similarity score.
// Descending score order is a search-time guarantee, not persisted.
type ScoredDocument struct {
	Document Document
	Score    float64
}
