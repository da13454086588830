package cwarstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/staking-client/pkg/solana"
	"github.com/code-payments/staking-client/pkg/solana/binary"
)

const (
	StakeInstructionArgsSize = 8 // amount
)

type StakeInstructionArgs struct {
	Amount uint64
}

type StakeInstructionAccounts struct {
	Wallet         ed25519.PublicKey
	UserStorage    ed25519.PublicKey
	Pool           ed25519.PublicKey
	StakingVault   ed25519.PublicKey
	UserStakingAta ed25519.PublicKey
}

func NewStakeInstruction(
	program ed25519.PublicKey,
	accounts *StakeInstructionAccounts,
	args *StakeInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+StakeInstructionArgsSize)

	putInstructionType(data, InstructionTypeStake, &offset)
	binary.PutUint64(data, args.Amount, &offset)

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
				PublicKey:  accounts.StakingVault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.UserStakingAta,
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
