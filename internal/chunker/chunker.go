package chunker

import (
	"fmt"
	"strings"
)

const (
	DefaultChunkSize = 260
	DefaultOverlap   = 80
)

// PageText is one page of extracted document text, 1-based.
type PageText struct {
	Number int
	Text   string
}

// Chunk is a bounded word window with the inclusive page span it was drawn
// from. The ID is "<documentID>:<index>", so the same input always yields the
// same IDs.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	PageStart  int
	PageEnd    int
	Text       string
}

// ChunkID derives the deterministic chunk ID for a document and chunk index.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s:%d", documentID, index)
}

// Split windows the pages' words into chunks of up to size words, overlapping
// by overlap words. The buffer runs across page boundaries; a chunk is emitted
// when the buffer reaches size words, spanning from the first buffered word's
// page to the page of the word that filled it. After emission the buffer keeps
// its last overlap words, attributed to the emitting page (per-word page
// attribution is not tracked past a chunk boundary). A trailing partial chunk
// is always emitted. Empty pages contribute nothing.
func Split(documentID string, pages []PageText, size, overlap int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = 0
	}

	var (
		chunks    []Chunk
		buffer    []string
		startPage int
		lastPage  int
	)

	emit := func(endPage int) {
		chunks = append(chunks, Chunk{
			ID:         ChunkID(documentID, len(chunks)),
			DocumentID: documentID,
			Index:      len(chunks),
			PageStart:  startPage,
			PageEnd:    endPage,
			Text:       strings.Join(buffer, " "),
		})
	}

	for _, page := range pages {
		words := strings.Fields(page.Text)
		if len(words) == 0 {
			continue
		}
		if len(buffer) == 0 {
			startPage = page.Number
		}
		for _, word := range words {
			buffer = append(buffer, word)
			lastPage = page.Number
			if len(buffer) < size {
				continue
			}
			emit(page.Number)
			if overlap > 0 {
				tail := make([]string, overlap)
				copy(tail, buffer[len(buffer)-overlap:])
				buffer = tail
				startPage = page.Number
			} else {
				buffer = buffer[:0]
				startPage = page.Number
			}
		}
	}

	if len(buffer) > 0 {
		emit(lastPage)
	}

	return chunks
}
