package cwarstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/staking-client/pkg/solana"
)

type CloseUserInstructionAccounts struct {
	Wallet      ed25519.PublicKey
	UserStorage ed25519.PublicKey
	Pool        ed25519.PublicKey
}

func NewCloseUserInstruction(
	program ed25519.PublicKey,
	accounts *CloseUserInstructionAccounts,
) solana.Instruction {
	var offset int

	data := make([]byte, 1)
	putInstructionType(data, InstructionTypeCloseUser, &offset)

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
		},
	}
}
