package schema

import (
	"crypto/ed25519"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/staking-client/pkg/solana/binary"
)

var (
	ErrMissingField   = errors.New("record is missing field")
	ErrFieldType      = errors.New("record field has unexpected type")
	ErrUnknownKind    = errors.New("unknown field kind")
	ErrDuplicateField = errors.New("duplicate field name")
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindUint8
	KindUint32
	KindUint64
	KindUint128
	KindAddress
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindUint8:
		return "u8"
	case KindUint32:
		return "u32"
	case KindUint64:
		return "u64"
	case KindUint128:
		return "u128"
	case KindAddress:
		return "address"
	case KindStruct:
		return "struct"
	}
	return "unknown"
}

// Type is either a fixed width primitive or a nested schema.
type Type struct {
	Kind   Kind
	Schema *Schema
}

var (
	Uint8   = Type{Kind: KindUint8}
	Uint32  = Type{Kind: KindUint32}
	Uint64  = Type{Kind: KindUint64}
	Uint128 = Type{Kind: KindUint128}
	Address = Type{Kind: KindAddress}
)

func Struct(s *Schema) Type {
	return Type{Kind: KindStruct, Schema: s}
}

// Size is the number of bytes a value of this type occupies on the wire.
func (t Type) Size() int {
	switch t.Kind {
	case KindUint8:
		return binary.Uint8Size
	case KindUint32:
		return binary.Uint32Size
	case KindUint64:
		return binary.Uint64Size
	case KindUint128:
		return binary.Uint128Size
	case KindAddress:
		return binary.AddressSize
	case KindStruct:
		if t.Schema == nil {
			return 0
		}
		return t.Schema.Size()
	}
	return 0
}

type Field struct {
	Name string
	Type Type
}

// Schema is an ordered list of fields laid out back to back with no padding
// or alignment.
type Schema struct {
	Name   string
	Fields []Field

	size int
}

// New builds a schema. Schemas are declared once at package init, so an
// invalid declaration panics.
func New(name string, fields ...Field) *Schema {
	seen := make(map[string]struct{})

	var size int
	for _, field := range fields {
		if _, ok := seen[field.Name]; ok {
			panic(errors.Wrapf(ErrDuplicateField, "%s.%s", name, field.Name))
		}
		seen[field.Name] = struct{}{}

		fieldSize := field.Type.Size()
		if fieldSize == 0 {
			panic(errors.Wrapf(ErrUnknownKind, "%s.%s", name, field.Name))
		}
		size += fieldSize
	}

	return &Schema{
		Name:   name,
		Fields: fields,
		size:   size,
	}
}

// Size is the total fixed size of the schema in bytes.
func (s *Schema) Size() int {
	return s.size
}

// Offset returns the byte offset at which the named top level field starts.
func (s *Schema) Offset(name string) (int, bool) {
	var offset int
	for _, field := range s.Fields {
		if field.Name == name {
			return offset, true
		}
		offset += field.Type.Size()
	}
	return 0, false
}

// SchemaDecodeError identifies the field that could not be decoded.
type SchemaDecodeError struct {
	Schema string
	Field  string
	Offset int
	Err    error
}

func (e *SchemaDecodeError) Error() string {
	return fmt.Sprintf("error decoding %s.%s at offset %d: %v", e.Schema, e.Field, e.Offset, e.Err)
}

func (e *SchemaDecodeError) Unwrap() error {
	return e.Err
}

// Decode reads every field of s from buf in declaration order. Bytes past
// s.Size() are ignored. The leading account type, if any, is decoded like
// any other field and never validated here.
func Decode(buf []byte, s *Schema) (Record, error) {
	if len(buf) > s.Size() {
		buf = buf[:s.Size()]
	}

	record, _, err := decodeStruct(buf, 0, s, s.Name, "")
	if err != nil {
		return nil, err
	}
	return record, nil
}

func decodeStruct(buf []byte, offset int, s *Schema, root, path string) (Record, int, error) {
	record := make(Record, len(s.Fields))

	for _, field := range s.Fields {
		fieldPath := field.Name
		if len(path) > 0 {
			fieldPath = path + "." + field.Name
		}

		var value interface{}
		var err error

		switch field.Type.Kind {
		case KindUint8:
			value, err = binary.DecodeUint8(buf, offset)
		case KindUint32:
			value, err = binary.DecodeUint32(buf, offset)
		case KindUint64:
			value, err = binary.DecodeUint64(buf, offset)
		case KindUint128:
			value, err = binary.DecodeUint128(buf, offset)
		case KindAddress:
			value, err = binary.DecodeAddress(buf, offset)
		case KindStruct:
			var nested Record
			nested, _, err = decodeStruct(buf, offset, field.Type.Schema, root, fieldPath)
			if err != nil {
				// Already carries the nested field path
				return nil, 0, err
			}
			value = nested
		default:
			err = ErrUnknownKind
		}

		if err != nil {
			return nil, 0, &SchemaDecodeError{
				Schema: root,
				Field:  fieldPath,
				Offset: offset,
				Err:    err,
			}
		}

		record[field.Name] = value
		offset += field.Type.Size()
	}

	return record, offset, nil
}

// Encode is the inverse of Decode.
func Encode(r Record, s *Schema) ([]byte, error) {
	dst := make([]byte, s.Size())
	if err := encodeStruct(dst, 0, r, s, s.Name); err != nil {
		return nil, err
	}
	return dst, nil
}

func encodeStruct(dst []byte, offset int, r Record, s *Schema, path string) error {
	for _, field := range s.Fields {
		fieldPath := path + "." + field.Name

		value, ok := r[field.Name]
		if !ok {
			return errors.Wrap(ErrMissingField, fieldPath)
		}

		var err error
		switch field.Type.Kind {
		case KindUint8:
			v, ok := value.(uint8)
			if !ok {
				return fieldTypeError(fieldPath, field.Type, value)
			}
			err = binary.EncodeUint8(dst, offset, v)
		case KindUint32:
			v, ok := value.(uint32)
			if !ok {
				return fieldTypeError(fieldPath, field.Type, value)
			}
			err = binary.EncodeUint32(dst, offset, v)
		case KindUint64:
			v, ok := value.(uint64)
			if !ok {
				return fieldTypeError(fieldPath, field.Type, value)
			}
			err = binary.EncodeUint64(dst, offset, v)
		case KindUint128:
			v, ok := value.(*big.Int)
			if !ok || v == nil {
				return fieldTypeError(fieldPath, field.Type, value)
			}
			err = binary.EncodeUint128(dst, offset, v)
		case KindAddress:
			switch v := value.(type) {
			case string:
				err = binary.EncodeAddress(dst, offset, v)
			case ed25519.PublicKey:
				err = binary.EncodeKey(dst, offset, v)
			default:
				return fieldTypeError(fieldPath, field.Type, value)
			}
		case KindStruct:
			nested, ok := value.(Record)
			if !ok {
				return fieldTypeError(fieldPath, field.Type, value)
			}
			err = encodeStruct(dst, offset, nested, field.Type.Schema, fieldPath)
		default:
			err = ErrUnknownKind
		}

		if err != nil {
			return errors.Wrapf(err, "error encoding %s", fieldPath)
		}

		offset += field.Type.Size()
	}
	return nil
}

func fieldTypeError(path string, t Type, value interface{}) error {
	return errors.Wrapf(ErrFieldType, "%s: want %s, got %T", path, t.Kind, value)
}

// Record is a decoded schema instance. Values are uint8, uint32, uint64,
// *big.Int (u128), base58 string (address) or a nested Record.
type Record map[string]interface{}

func (r Record) Uint8(name string) (uint8, error) {
	v, ok := r[name].(uint8)
	if !ok {
		return 0, r.lookupError(name, Uint8)
	}
	return v, nil
}

func (r Record) Uint32(name string) (uint32, error) {
	v, ok := r[name].(uint32)
	if !ok {
		return 0, r.lookupError(name, Uint32)
	}
	return v, nil
}

func (r Record) Uint64(name string) (uint64, error) {
	v, ok := r[name].(uint64)
	if !ok {
		return 0, r.lookupError(name, Uint64)
	}
	return v, nil
}

func (r Record) Uint128(name string) (*big.Int, error) {
	v, ok := r[name].(*big.Int)
	if !ok || v == nil {
		return nil, r.lookupError(name, Uint128)
	}
	return new(big.Int).Set(v), nil
}

func (r Record) Address(name string) (string, error) {
	v, ok := r[name].(string)
	if !ok {
		return "", r.lookupError(name, Address)
	}
	return v, nil
}

// Key returns an address field as raw public key bytes.
func (r Record) Key(name string) (ed25519.PublicKey, error) {
	address, err := r.Address(name)
	if err != nil {
		return nil, err
	}

	decoded, err := base58.Decode(address)
	if err != nil {
		return nil, errors.Wrapf(binary.ErrInvalidAddress, "%s: %v", name, err)
	}
	return decoded, nil
}

func (r Record) Struct(name string) (Record, error) {
	v, ok := r[name].(Record)
	if !ok {
		return nil, r.lookupError(name, Type{Kind: KindStruct})
	}
	return v, nil
}

func (r Record) lookupError(name string, t Type) error {
	value, ok := r[name]
	if !ok {
		return errors.Wrap(ErrMissingField, name)
	}
	return fieldTypeError(name, t, value)
}
