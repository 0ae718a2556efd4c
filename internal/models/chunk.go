package models

// TextChunk is a bounded slice of the index source document. Its position in the
// index chunk list matches the position of its embedding vector.
type TextChunk struct {
	Content   string `json:"content" db:"content"`
	Source    string `json:"source" db:"source"`
	ChunkID   int    `json:"chunk_id" db:"chunk_id"`
	CharCount int    `json:"char_count" db:"char_count"`
}
