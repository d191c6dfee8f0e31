package extractor

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
)

// contentHash computes the SHA-256 over a canonical, fixed-endianness
// serialization of a product's hashed attributes:
// {ifc_class, name, description, object_type, tag, contained_in, vertices,
// normals, faces, matrix}. Field order and encoding never change across
// calls, which is what makes two extractions of the same file produce
// identical hashes.
func contentHash(ifcClass, name, description, objectType, tag, containedIn string, mesh Mesh) string {
	h := sha256.New()
	writeString(h, ifcClass)
	writeString(h, name)
	writeString(h, description)
	writeString(h, objectType)
	writeString(h, tag)
	writeString(h, containedIn)
	writeFloat32s(h, mesh.Vertices)
	writeFloat32s(h, mesh.Normals)
	writeUint32s(h, mesh.Faces)
	for _, f := range mesh.Matrix {
		writeFloat32(h, f)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeString(h hash.Hash, s string) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(s)))
	h.Write(lenBuf[:])
	h.Write([]byte(s))
}

func writeFloat32(h hash.Hash, f float32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(f))
	h.Write(buf[:])
}

func writeFloat32s(h hash.Hash, vals []float32) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(vals)))
	h.Write(lenBuf[:])
	for _, v := range vals {
		writeFloat32(h, v)
	}
}

func writeUint32s(h hash.Hash, vals []uint32) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(vals)))
	h.Write(lenBuf[:])
	var buf [4]byte
	for _, v := range vals {
		binary.LittleEndian.PutUint32(buf[:], v)
		h.Write(buf[:])
	}
}
