package cwarstaking

import (
	"crypto/ed25519"
	"math/big"

	"github.com/code-payments/staking-client/pkg/solana/schema"
)

// recordReader pulls typed values out of a decoded record, keeping the first
// error so account Unmarshal methods read as a flat list of fields.
type recordReader struct {
	record schema.Record
	err    error
}

func (r *recordReader) getUint8(name string, dst *uint8) {
	if r.err != nil {
		return
	}
	*dst, r.err = r.record.Uint8(name)
}

func (r *recordReader) getUint32(name string, dst *uint32) {
	if r.err != nil {
		return
	}
	*dst, r.err = r.record.Uint32(name)
}

func (r *recordReader) getUint64(name string, dst *uint64) {
	if r.err != nil {
		return
	}
	*dst, r.err = r.record.Uint64(name)
}

func (r *recordReader) getUint128(name string, dst **big.Int) {
	if r.err != nil {
		return
	}
	*dst, r.err = r.record.Uint128(name)
}

func (r *recordReader) getKey(name string, dst *ed25519.PublicKey) {
	if r.err != nil {
		return
	}
	*dst, r.err = r.record.Key(name)
}

func (r *recordReader) getStruct(name string) *recordReader {
	if r.err != nil {
		return r
	}

	nested, err := r.record.Struct(name)
	if err != nil {
		r.err = err
		return r
	}
	return &recordReader{record: nested}
}

func isZeroKey(key ed25519.PublicKey) bool {
	for _, b := range key {
		if b != 0 {
			return false
		}
	}
	return true
}

func keyOrZero(key ed25519.PublicKey) ed25519.PublicKey {
	if len(key) == 0 {
		return make(ed25519.PublicKey, ed25519.PublicKeySize)
	}
	return key
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
