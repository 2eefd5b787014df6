package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	rows := make([]int, 1201)
	for i := range rows {
		rows[i] = i
	}

	chunks := Chunk(rows, InsertChunkSize)

	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 500)
	assert.Len(t, chunks[1], 500)
	assert.Len(t, chunks[2], 201)
	assert.Equal(t, 1200, chunks[2][200])
}

func TestChunkEmpty(t *testing.T) {
	assert.Empty(t, Chunk([]string{}, 10))
	assert.Len(t, Chunk([]string{"a"}, 0), 1)
}
