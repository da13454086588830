package cwarstaking

import (
	"crypto/ed25519"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/staking-client/pkg/solana/schema"
)

const (
	UserAccountSize = (1 + // account_type
		32 + // user_wallet
		32 + // pool
		8 + // balance_staked
		1 + // nonce
		8 + // reward_per_token_pending
		16) // rewards_per_token_completed
)

var UserAccountSchema = schema.New(
	"User",
	schema.Field{Name: "accountType", Type: schema.Uint8},
	schema.Field{Name: "userWallet", Type: schema.Address},
	schema.Field{Name: "pool", Type: schema.Address},
	schema.Field{Name: "balanceStaked", Type: schema.Uint64},
	schema.Field{Name: "nonce", Type: schema.Uint8},
	schema.Field{Name: "rewardPerTokenPending", Type: schema.Uint64},
	schema.Field{Name: "rewardsPerTokenCompleted", Type: schema.Uint128},
)

// UserAccount is a point in time snapshot of a wallet's storage account for a
// single pool.
type UserAccount struct {
	AccountType              AccountType
	UserWallet               ed25519.PublicKey
	Pool                     ed25519.PublicKey
	BalanceStaked            uint64
	Nonce                    uint8
	RewardPerTokenPending    uint64
	RewardsPerTokenCompleted *big.Int
}

func UserAccountFromBytes(data []byte) (*UserAccount, error) {
	var obj UserAccount
	if err := obj.Unmarshal(data); err != nil {
		return nil, err
	}
	return &obj, nil
}

func (obj *UserAccount) Unmarshal(data []byte) error {
	record, err := schema.Decode(data, UserAccountSchema)
	if err != nil {
		return err
	}

	var accountType uint8

	r := &recordReader{record: record}
	r.getUint8("accountType", &accountType)
	r.getKey("userWallet", &obj.UserWallet)
	r.getKey("pool", &obj.Pool)
	r.getUint64("balanceStaked", &obj.BalanceStaked)
	r.getUint8("nonce", &obj.Nonce)
	r.getUint64("rewardPerTokenPending", &obj.RewardPerTokenPending)
	r.getUint128("rewardsPerTokenCompleted", &obj.RewardsPerTokenCompleted)
	if r.err != nil {
		return errors.Wrap(ErrInvalidAccountData, r.err.Error())
	}

	obj.AccountType = AccountType(accountType)
	return nil
}

func (obj *UserAccount) Marshal() ([]byte, error) {
	return schema.Encode(schema.Record{
		"accountType":              uint8(obj.AccountType),
		"userWallet":               keyOrZero(obj.UserWallet),
		"pool":                     keyOrZero(obj.Pool),
		"balanceStaked":            obj.BalanceStaked,
		"nonce":                    obj.Nonce,
		"rewardPerTokenPending":    obj.RewardPerTokenPending,
		"rewardsPerTokenCompleted": bigOrZero(obj.RewardsPerTokenCompleted),
	}, UserAccountSchema)
}

func (obj *UserAccount) IsInitialized() bool {
	return obj.AccountType == AccountTypeUser
}

func (obj *UserAccount) String() string {
	return fmt.Sprintf(
		"User{account_type=%d,user_wallet=%s,pool=%s,balance_staked=%d,nonce=%d,reward_per_token_pending=%d,rewards_per_token_completed=%s}",
		obj.AccountType,
		base58.Encode(obj.UserWallet),
		base58.Encode(obj.Pool),
		obj.BalanceStaked,
		obj.Nonce,
		obj.RewardPerTokenPending,
		bigOrZero(obj.RewardsPerTokenCompleted).String(),
	)
}
