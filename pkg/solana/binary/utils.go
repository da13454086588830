package binary

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	Uint8Size   = 1
	Uint32Size  = 4
	Uint64Size  = 8
	Uint128Size = 16
	AddressSize = ed25519.PublicKeySize
)

var (
	ErrNegativeValue  = errors.New("value is negative")
	ErrValueTooLarge  = errors.New("value does not fit in field width")
	ErrInvalidAddress = errors.New("invalid address")
)

// BufferTooShortError is returned when a buffer ends before a fixed width
// field that starts at Offset can be fully read or written.
type BufferTooShortError struct {
	Offset int
	Width  int
	Length int
}

func (e *BufferTooShortError) Error() string {
	return fmt.Sprintf("buffer too short: need %d bytes at offset %d, have %d", e.Width, e.Offset, e.Length)
}

func checkBounds(buf []byte, offset, width int) error {
	if offset < 0 || width < 0 || offset+width > len(buf) {
		return &BufferTooShortError{
			Offset: offset,
			Width:  width,
			Length: len(buf),
		}
	}
	return nil
}

// DecodeUint reads an unsigned little endian integer of widthBytes bytes
// starting at offset.
func DecodeUint(buf []byte, offset, widthBytes int) (*big.Int, error) {
	if err := checkBounds(buf, offset, widthBytes); err != nil {
		return nil, err
	}

	// big.Int wants big endian
	be := make([]byte, widthBytes)
	for i := 0; i < widthBytes; i++ {
		be[i] = buf[offset+widthBytes-1-i]
	}
	return new(big.Int).SetBytes(be), nil
}

func DecodeUint8(buf []byte, offset int) (uint8, error) {
	if err := checkBounds(buf, offset, Uint8Size); err != nil {
		return 0, err
	}
	return buf[offset], nil
}

func DecodeUint32(buf []byte, offset int) (uint32, error) {
	if err := checkBounds(buf, offset, Uint32Size); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[offset:]), nil
}

func DecodeUint64(buf []byte, offset int) (uint64, error) {
	if err := checkBounds(buf, offset, Uint64Size); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[offset:]), nil
}

func DecodeUint128(buf []byte, offset int) (*big.Int, error) {
	return DecodeUint(buf, offset, Uint128Size)
}

// DecodeKey reads a raw 32 byte account address.
func DecodeKey(buf []byte, offset int) (ed25519.PublicKey, error) {
	if err := checkBounds(buf, offset, AddressSize); err != nil {
		return nil, err
	}
	key := make(ed25519.PublicKey, AddressSize)
	copy(key, buf[offset:offset+AddressSize])
	return key, nil
}

// DecodeAddress reads a 32 byte account address and renders it as base58.
func DecodeAddress(buf []byte, offset int) (string, error) {
	key, err := DecodeKey(buf, offset)
	if err != nil {
		return "", err
	}
	return base58.Encode(key), nil
}

// EncodeUint writes v as an unsigned little endian integer of widthBytes bytes
// starting at offset.
func EncodeUint(dst []byte, offset, widthBytes int, v *big.Int) error {
	if err := checkBounds(dst, offset, widthBytes); err != nil {
		return err
	}
	if v.Sign() < 0 {
		return ErrNegativeValue
	}
	if v.BitLen() > 8*widthBytes {
		return errors.Wrapf(ErrValueTooLarge, "%s exceeds %d bytes", v.String(), widthBytes)
	}

	be := v.FillBytes(make([]byte, widthBytes))
	for i := 0; i < widthBytes; i++ {
		dst[offset+i] = be[widthBytes-1-i]
	}
	return nil
}

func EncodeUint8(dst []byte, offset int, v uint8) error {
	if err := checkBounds(dst, offset, Uint8Size); err != nil {
		return err
	}
	dst[offset] = v
	return nil
}

func EncodeUint32(dst []byte, offset int, v uint32) error {
	if err := checkBounds(dst, offset, Uint32Size); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(dst[offset:], v)
	return nil
}

func EncodeUint64(dst []byte, offset int, v uint64) error {
	if err := checkBounds(dst, offset, Uint64Size); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(dst[offset:], v)
	return nil
}

func EncodeUint128(dst []byte, offset int, v *big.Int) error {
	return EncodeUint(dst, offset, Uint128Size, v)
}

func EncodeKey(dst []byte, offset int, key ed25519.PublicKey) error {
	if err := checkBounds(dst, offset, AddressSize); err != nil {
		return err
	}
	if len(key) != 0 && len(key) != AddressSize {
		return errors.Wrapf(ErrInvalidAddress, "key has %d bytes", len(key))
	}

	// An empty key is the default (all zero) address
	copy(dst[offset:offset+AddressSize], make([]byte, AddressSize))
	copy(dst[offset:], key)
	return nil
}

// EncodeAddress writes a base58 encoded address as its raw 32 bytes.
func EncodeAddress(dst []byte, offset int, address string) error {
	key, err := base58.Decode(address)
	if err != nil {
		return errors.Wrapf(ErrInvalidAddress, "%s: %v", address, err)
	}
	if len(key) != AddressSize {
		return errors.Wrapf(ErrInvalidAddress, "%s decodes to %d bytes", address, len(key))
	}
	return EncodeKey(dst, offset, key)
}

// The Put* helpers advance offset after writing and assume dst was sized by
// the caller, as is the case for fixed size instruction payloads.

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst[*offset:*offset+AddressSize], src)
	*offset += AddressSize
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst[*offset:], v)
	*offset += Uint64Size
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst[*offset:], v)
	*offset += Uint32Size
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[*offset] = v
	*offset += Uint8Size
}
