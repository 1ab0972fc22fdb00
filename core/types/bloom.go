package types

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// BloomBitLength is the number of bits in a bloom filter (2048).
const BloomBitLength = 8 * BloomLength

// bloomBits returns the byte index and mask of the three bloom bits derived
// from keccak256(data): the first 6 bytes of the hash, taken as three
// big-endian uint16 values mod 2048.
func bloomBits(data []byte) (idx [3]uint, mask [3]byte) {
	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	h := d.Sum(nil)
	for i := 0; i < 3; i++ {
		bit := uint(binary.BigEndian.Uint16(h[2*i:])) & (BloomBitLength - 1)
		// Bit 0 is the least significant bit of the last byte.
		idx[i] = BloomLength - 1 - bit/8
		mask[i] = 1 << (bit % 8)
	}
	return idx, mask
}

// BloomAdd sets the 3 bloom bits derived from data in the bloom filter.
func BloomAdd(bloom *Bloom, data []byte) {
	idx, mask := bloomBits(data)
	for i := range idx {
		bloom[idx[i]] |= mask[i]
	}
}

// BloomContains checks whether the bloom filter contains the given data.
func BloomContains(bloom Bloom, data []byte) bool {
	idx, mask := bloomBits(data)
	for i := range idx {
		if bloom[idx[i]]&mask[i] == 0 {
			return false
		}
	}
	return true
}

// LogsBloom computes the bloom filter for a set of logs.
func LogsBloom(logs []*Log) Bloom {
	var bloom Bloom
	for _, l := range logs {
		lb := LogBloom(l)
		for i := range bloom {
			bloom[i] |= lb[i]
		}
	}
	return bloom
}
