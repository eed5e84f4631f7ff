package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// DomainStoreImage prefixes the digest of one store's records.
// The version suffix allows changing the layout later.
const DomainStoreImage = "recstore/store-image/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	d := newDigest(domain)
	d.h.Write(data)
	return d.sum()
}

// digest hashes a stream of records incrementally. Each record is followed
// by a newline so record boundaries are part of the digest.
type digest struct {
	h hash.Hash
}

func newDigest(domain string) *digest {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	return &digest{h: h}
}

func (d *digest) add(record []byte) {
	d.h.Write(record)
	d.h.Write([]byte{'\n'})
}

func (d *digest) sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
