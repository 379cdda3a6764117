package project

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// Digest is a fixed 256-bit content hash.
type Digest [32]byte

// Sum hashes data.
func Sum(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// FileDigest hashes the file at path.
func FileDigest(path string) (Digest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Digest{}, err
	}
	return Sum(data), nil
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Combine builds an aggregate hash H(first || rest...). Order matters.
func Combine(first Digest, rest ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(first[:])
	for _, d := range rest {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
