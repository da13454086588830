package cwarstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/staking-client/pkg/solana"
	"github.com/code-payments/staking-client/pkg/solana/binary"
)

const (
	InitializePoolInstructionArgsSize = (8 + // reward_duration
		1 + // pool_nonce
		8) // fund_amount
)

type InitializePoolInstructionArgs struct {
	RewardDuration uint64
	PoolNonce      uint8
	FundAmount     uint64
}

type InitializePoolInstructionAccounts struct {
	Owner           ed25519.PublicKey
	PoolStorage     ed25519.PublicKey
	StakingMint     ed25519.PublicKey
	StakingVault    ed25519.PublicKey
	RewardMint      ed25519.PublicKey
	RewardVault     ed25519.PublicKey
	Funder          ed25519.PublicKey
	FunderRewardAta ed25519.PublicKey
}

func NewInitializePoolInstruction(
	program ed25519.PublicKey,
	accounts *InitializePoolInstructionAccounts,
	args *InitializePoolInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+InitializePoolInstructionArgsSize)

	putInstructionType(data, InstructionTypeInitializePool, &offset)
	binary.PutUint64(data, args.RewardDuration, &offset)
	binary.PutUint8(data, args.PoolNonce, &offset)
	binary.PutUint64(data, args.FundAmount, &offset)

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
				PublicKey:  accounts.PoolStorage,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.StakingMint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.StakingVault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.RewardMint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.RewardVault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Funder,
				IsWritable: false,
				IsSigner:   true,
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
