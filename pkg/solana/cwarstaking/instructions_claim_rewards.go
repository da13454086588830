package cwarstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/staking-client/pkg/solana"
)

type ClaimRewardsInstructionAccounts struct {
	Wallet        ed25519.PublicKey
	UserStorage   ed25519.PublicKey
	Pool          ed25519.PublicKey
	StakingVault  ed25519.PublicKey
	RewardVault   ed25519.PublicKey
	UserRewardAta ed25519.PublicKey
	PoolSigner    ed25519.PublicKey
}

func NewClaimRewardsInstruction(
	program ed25519.PublicKey,
	accounts *ClaimRewardsInstructionAccounts,
) solana.Instruction {
	var offset int

	data := make([]byte, 1)
	putInstructionType(data, InstructionTypeClaimRewards, &offset)

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
				PublicKey:  accounts.RewardVault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.UserRewardAta,
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
