package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/staking-client/pkg/solana"
	"github.com/code-payments/staking-client/pkg/solana/system"
)

// ProgramKey is the SPL Token program, TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA.
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

type Command byte

const (
	CommandInitializeMint Command = iota
	CommandInitializeAccount
)

// InitializeAccount sets up a freshly allocated account to hold mint on
// behalf of owner. The account must already be created with AccountSize
// bytes and assigned to ProgramKey.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L41-L55
func InitializeAccount(account, mint, owner ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		[]byte{byte(CommandInitializeAccount)},
		solana.NewAccountMeta(account, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(owner, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

type DecompiledInitializeAccount struct {
	Account ed25519.PublicKey
	Mint    ed25519.PublicKey
	Owner   ed25519.PublicKey
}

// DecompileInitializeAccount reads back the InitializeAccount instruction at
// index.
func DecompileInitializeAccount(m solana.Message, index int) (*DecompiledInitializeAccount, error) {
	if index < 0 || index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}
	ix := m.Instructions[index]

	if !bytes.Equal(m.Accounts[ix.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(ix.Data) != 1 || Command(ix.Data[0]) != CommandInitializeAccount {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(ix.Accounts) != 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(ix.Accounts))
	}
	if !bytes.Equal(m.Accounts[ix.Accounts[3]], system.RentSysVar) {
		return nil, errors.New("missing rent sysvar")
	}

	return &DecompiledInitializeAccount{
		Account: m.Accounts[ix.Accounts[0]],
		Mint:    m.Accounts[ix.Accounts[1]],
		Owner:   m.Accounts[ix.Accounts[2]],
	}, nil
}
