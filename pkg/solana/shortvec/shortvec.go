// Package shortvec implements the compact length prefix used by Solana's wire
// format: little-endian base-128 with a continuation bit, at most three bytes.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedLen = 3

var (
	ErrLenTooLarge     = errors.Errorf("len exceeds %d", math.MaxUint16)
	ErrEncodingTooLong = errors.Errorf("encoding exceeds %d bytes", maxEncodedLen)
)

// EncodeLen writes the encoding of len to w and returns the number of bytes
// written.
func EncodeLen(w io.Writer, len int) (int, error) {
	if len < 0 || len > math.MaxUint16 {
		return 0, ErrLenTooLarge
	}

	var encoded [maxEncodedLen]byte
	size := 0
	for {
		encoded[size] = byte(len & 0x7f)
		len >>= 7
		if len == 0 {
			size++
			break
		}
		encoded[size] |= 0x80
		size++
	}

	return w.Write(encoded[:size])
}

// DecodeLen reads an encoded length from r.
func DecodeLen(r io.Reader) (int, error) {
	var next [1]byte
	var val int

	for i := 0; i < maxEncodedLen; i++ {
		if _, err := io.ReadFull(r, next[:]); err != nil {
			return 0, err
		}

		val |= int(next[0]&0x7f) << (7 * i)
		if next[0]&0x80 == 0 {
			return val, nil
		}
	}

	return 0, ErrEncodingTooLong
}
