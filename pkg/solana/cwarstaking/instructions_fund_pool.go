package cwarstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/staking-client/pkg/solana"
	"github.com/code-payments/staking-client/pkg/solana/binary"
)

const (
	FundPoolInstructionArgsSize = 8 // amount
)

type FundPoolInstructionArgs struct {
	Amount uint64
}

type FundPoolInstructionAccounts struct {
	Funder          ed25519.PublicKey
	Pool            ed25519.PublicKey
	StakingVault    ed25519.PublicKey
	RewardVault     ed25519.PublicKey
	FunderRewardAta ed25519.PublicKey
}

func NewFundPoolInstruction(
	program ed25519.PublicKey,
	accounts *FundPoolInstructionAccounts,
	args *FundPoolInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+FundPoolInstructionArgsSize)

	putInstructionType(data, InstructionTypeFundPool, &offset)
	binary.PutUint64(data, args.Amount, &offset)

	return solana.Instruction{
		Program: program,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Funder,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Pool,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.StakingVault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.RewardVault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.FunderRewardAta,
				IsWritable: true,
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
