package ingest

import (
	"encoding/binary"
	"math"
)

// encodeFloat32s packs a []float32 into little-endian bytes for storage in
// a bytea column. The Query Layer (internal/query/mesh.go) does not decode
// these bytes; it returns them base64-encoded, still little-endian.
func encodeFloat32s(vals []float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func encodeUint32s(vals []uint32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}
