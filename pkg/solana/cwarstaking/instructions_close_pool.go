package cwarstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/staking-client/pkg/solana"
)

type ClosePoolInstructionAccounts struct {
	Owner            ed25519.PublicKey
	StakingVault     ed25519.PublicKey
	StakingRefundAta ed25519.PublicKey
	RewardVault      ed25519.PublicKey
	RewardRefundAta  ed25519.PublicKey
	Pool             ed25519.PublicKey
	PoolSigner       ed25519.PublicKey
}

func NewClosePoolInstruction(
	program ed25519.PublicKey,
	accounts *ClosePoolInstructionAccounts,
) solana.Instruction {
	var offset int

	data := make([]byte, 1)
	putInstructionType(data, InstructionTypeClosePool, &offset)

	return solana.Instruction{
		Program: program,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Owner,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.StakingVault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.StakingRefundAta,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.RewardVault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.RewardRefundAta,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Pool,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.PoolSigner,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SPL_TOKEN_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
