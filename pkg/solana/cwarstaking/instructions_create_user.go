package cwarstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/staking-client/pkg/solana"
	"github.com/code-payments/staking-client/pkg/solana/binary"
)

const (
	CreateUserInstructionArgsSize = 1 // nonce
)

type CreateUserInstructionArgs struct {
	Nonce uint8
}

type CreateUserInstructionAccounts struct {
	Wallet      ed25519.PublicKey
	UserStorage ed25519.PublicKey
	Pool        ed25519.PublicKey
}

func NewCreateUserInstruction(
	program ed25519.PublicKey,
	accounts *CreateUserInstructionAccounts,
	args *CreateUserInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+CreateUserInstructionArgsSize)

	putInstructionType(data, InstructionTypeCreateUser, &offset)
	binary.PutUint8(data, args.Nonce, &offset)

	return solana.Instruction{
		Program: program,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Wallet,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.UserStorage,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Pool,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
