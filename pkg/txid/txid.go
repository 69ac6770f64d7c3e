// Package txid derives stable, collision-resistant transaction identifiers
// from call descriptors, and builds selector-prefixed dispatch payloads.
package txid

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"github.com/Mindburn-Labs/timelock/pkg/contracts"
)

// Field tags for the canonical encoding. Each field is written as
// tag || uint64 big-endian length || bytes, so no two descriptors can
// produce the same byte stream under concatenation.
const (
	tagTarget byte = iota + 1
	tagValue
	tagData
	tagFunctionSignature
	tagScheduledTime
)

// SelectorSize is the length of a function selector in bytes.
const SelectorSize = 4

// Derive maps a descriptor to its TxID: keccak-256 over the canonical,
// length-prefixed encoding of all five fields. Pure and deterministic;
// differing any single field yields a different identifier.
func Derive(d contracts.Descriptor) contracts.TxID {
	h := sha3.NewLegacyKeccak256()

	writeField(h.Write, tagTarget, []byte(d.Target))
	writeField(h.Write, tagValue, beUint64(d.Value))
	writeField(h.Write, tagData, d.Data)
	writeField(h.Write, tagFunctionSignature, []byte(d.FunctionSignature))
	writeField(h.Write, tagScheduledTime, beUint64(uint64(d.ScheduledTime)))

	var id contracts.TxID
	h.Sum(id[:0])
	return id
}

// Selector returns the first 4 bytes of keccak-256 of the signature string.
func Selector(signature string) [SelectorSize]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	var sum [32]byte
	h.Sum(sum[:0])
	var sel [SelectorSize]byte
	copy(sel[:], sum[:SelectorSize])
	return sel
}

// BuildPayload constructs the dispatch payload for a call. A non-empty
// signature yields selector || data; an empty signature yields data verbatim.
func BuildPayload(signature string, data []byte) []byte {
	if signature == "" {
		out := make([]byte, len(data))
		copy(out, data)
		return out
	}
	sel := Selector(signature)
	out := make([]byte, 0, SelectorSize+len(data))
	out = append(out, sel[:]...)
	return append(out, data...)
}

func writeField(write func([]byte) (int, error), tag byte, value []byte) {
	var hdr [9]byte
	hdr[0] = tag
	binary.BigEndian.PutUint64(hdr[1:], uint64(len(value)))
	_, _ = write(hdr[:])
	_, _ = write(value)
}

func beUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
