package cwarstaking

import (
	"github.com/code-payments/staking-client/pkg/solana/binary"
)

type InstructionType uint8

const (
	InstructionTypeInitializePool InstructionType = iota
	InstructionTypeCreateUser
	InstructionTypeStake
	InstructionTypeUnstake
	InstructionTypeClaimRewards
	InstructionTypeAddFunder
	InstructionTypeRemoveFunder
	InstructionTypeFundPool
	InstructionTypeClosePool
	InstructionTypeCloseUser
)

func (t InstructionType) String() string {
	switch t {
	case InstructionTypeInitializePool:
		return "initialize_pool"
	case InstructionTypeCreateUser:
		return "create_user"
	case InstructionTypeStake:
		return "stake"
	case InstructionTypeUnstake:
		return "unstake"
	case InstructionTypeClaimRewards:
		return "claim_rewards"
	case InstructionTypeAddFunder:
		return "add_funder"
	case InstructionTypeRemoveFunder:
		return "remove_funder"
	case InstructionTypeFundPool:
		return "fund_pool"
	case InstructionTypeClosePool:
		return "close_pool"
	case InstructionTypeCloseUser:
		return "close_user"
	}
	return "unknown"
}

func putInstructionType(dst []byte, v InstructionType, offset *int) {
	binary.PutUint8(dst, uint8(v), offset)
}
