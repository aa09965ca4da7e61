// Package chunker partitions a SpecSnapshot's endpoint list into
// fixed-size chunks, each a standalone SpecSnapshot sharing every
// top-level field except Endpoints.
package chunker

import (
	"github.com/blackcoderx/apisentinel/internal/model"
)

// ChunkSize is the fixed partition size C from the design document.
const ChunkSize = 4

// Split partitions snap.Endpoints into ceil(n/ChunkSize) chunk snapshots,
// each preserving every other top-level field verbatim. A spec with no
// more than ChunkSize endpoints degenerates to a single chunk.
func Split(snap model.SpecSnapshot) []model.SpecSnapshot {
	if len(snap.Endpoints) == 0 {
		base := snap
		base.Endpoints = nil
		return []model.SpecSnapshot{base}
	}

	var chunks []model.SpecSnapshot
	for i := 0; i < len(snap.Endpoints); i += ChunkSize {
		end := i + ChunkSize
		if end > len(snap.Endpoints) {
			end = len(snap.Endpoints)
		}
		chunk := snap
		chunk.Endpoints = append([]model.Endpoint(nil), snap.Endpoints[i:end]...)
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Merge re-unions a set of chunks back into their source endpoint list,
// in chunk order, used by the chunker's round-trip property test.
func Merge(chunks []model.SpecSnapshot) []model.Endpoint {
	var all []model.Endpoint
	for _, c := range chunks {
		all = append(all, c.Endpoints...)
	}
	return all
}
