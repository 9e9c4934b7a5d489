package domain

// Chunk is the atomic unit of retrieval: a bounded passage of one source page.
// Chunks are immutable once indexed; a corpus rebuild produces a new snapshot.
type Chunk struct {
	ID         string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	SourceURL  string `json:"source_url"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
}

// Document groups the chunks of one source page. ChunkIDs preserve original
// text order.
type Document struct {
	ID        string   `json:"document_id"`
	SourceURL string   `json:"source_url"`
	Title     string   `json:"title"`
	ChunkIDs  []string `json:"chunk_ids"`
}
