// Package system builds and inspects System Program instructions.
package system

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/staking-client/pkg/solana"
	"github.com/code-payments/staking-client/pkg/solana/binary"
)

// ProgramKey is the all zero address of the System Program.
var ProgramKey [32]byte

const (
	commandCreateAccount uint32 = iota
	commandAssign
)

// command(4) | lamports(8) | space(8) | owner(32)
const createAccountDataSize = binary.Uint32Size + 2*binary.Uint64Size + binary.AddressSize

// CreateAccount allocates size bytes at address, funds it with lamports from
// funder and assigns it to owner. Both funder and address must sign.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	data := make([]byte, createAccountDataSize)

	var offset int
	binary.PutUint32(data, commandCreateAccount, &offset)
	binary.PutUint64(data, lamports, &offset)
	binary.PutUint64(data, size, &offset)
	binary.PutKey32(data, owner, &offset)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

type DecompiledCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

// DecompileCreateAccount reads back the CreateAccount instruction at index.
func DecompileCreateAccount(m solana.Message, index int) (*DecompiledCreateAccount, error) {
	if index < 0 || index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}
	ix := m.Instructions[index]

	if !bytes.Equal(m.Accounts[ix.ProgramIndex], ProgramKey[:]) {
		return nil, solana.ErrIncorrectProgram
	}

	command, err := binary.DecodeUint32(ix.Data, 0)
	if err != nil || command != commandCreateAccount {
		return nil, solana.ErrIncorrectInstruction
	}

	if len(ix.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(ix.Accounts))
	}
	if len(ix.Data) != createAccountDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(ix.Data))
	}

	decompiled := &DecompiledCreateAccount{
		Funder:  m.Accounts[ix.Accounts[0]],
		Address: m.Accounts[ix.Accounts[1]],
	}

	offset := binary.Uint32Size
	if decompiled.Lamports, err = binary.DecodeUint64(ix.Data, offset); err != nil {
		return nil, err
	}
	offset += binary.Uint64Size
	if decompiled.Size, err = binary.DecodeUint64(ix.Data, offset); err != nil {
		return nil, err
	}
	offset += binary.Uint64Size
	if decompiled.Owner, err = binary.DecodeKey(ix.Data, offset); err != nil {
		return nil, err
	}

	return decompiled, nil
}
