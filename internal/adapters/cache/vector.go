package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// CacheKey derives the cache key for one embedding input. Embeddings are
// deterministic per model, so model name and text fully identify a vector.
func CacheKey(modelName, text string) string {
	sum := sha256.Sum256([]byte(modelName + "|" + text))
	return hex.EncodeToString(sum[:])
}

// encodeVector serializes a vector as little-endian float32 values
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// decodeVector deserializes a vector encoded by encodeVector
func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(data))
	}
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vector, nil
}
