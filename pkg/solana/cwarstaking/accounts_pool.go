package cwarstaking

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/staking-client/pkg/solana/schema"
)

const (
	PoolAccountSize = (1 + // account_type
		32 + // owner_wallet
		32 + // staking_vault
		32 + // staking_mint
		32 + // reward_vault
		32 + // reward_mint
		8 + // reward_rate
		8 + // reward_duration
		8 + // total_stake_last_update_time
		16 + // reward_per_token_stored
		4 + // user_stake_count
		1 + // pda_nonce
		MaxFunders*32 + // funders
		8) // reward_duration_end
)

var FundersSchema = schema.New(
	"Funders",
	schema.Field{Name: "funder0", Type: schema.Address},
	schema.Field{Name: "funder1", Type: schema.Address},
	schema.Field{Name: "funder2", Type: schema.Address},
	schema.Field{Name: "funder3", Type: schema.Address},
	schema.Field{Name: "funder4", Type: schema.Address},
)

var PoolAccountSchema = schema.New(
	"Pool",
	schema.Field{Name: "accountType", Type: schema.Uint8},
	schema.Field{Name: "ownerWallet", Type: schema.Address},
	schema.Field{Name: "stakingVault", Type: schema.Address},
	schema.Field{Name: "stakingMint", Type: schema.Address},
	schema.Field{Name: "rewardVault", Type: schema.Address},
	schema.Field{Name: "rewardMint", Type: schema.Address},
	schema.Field{Name: "rewardRate", Type: schema.Uint64},
	schema.Field{Name: "rewardDuration", Type: schema.Uint64},
	schema.Field{Name: "totalStakeLastUpdateTime", Type: schema.Uint64},
	schema.Field{Name: "rewardPerTokenStored", Type: schema.Uint128},
	schema.Field{Name: "userStakeCount", Type: schema.Uint32},
	schema.Field{Name: "pdaNonce", Type: schema.Uint8},
	schema.Field{Name: "funders", Type: schema.Struct(FundersSchema)},
	schema.Field{Name: "rewardDurationEnd", Type: schema.Uint64},
)

// PoolAccount is a point in time snapshot of a staking pool's storage
// account. RewardPerTokenStored is scaled by Precision.
type PoolAccount struct {
	AccountType              AccountType
	OwnerWallet              ed25519.PublicKey
	StakingVault             ed25519.PublicKey
	StakingMint              ed25519.PublicKey
	RewardVault              ed25519.PublicKey
	RewardMint               ed25519.PublicKey
	RewardRate               uint64
	RewardDuration           uint64
	TotalStakeLastUpdateTime uint64
	RewardPerTokenStored     *big.Int
	UserStakeCount           uint32
	PdaNonce                 uint8
	Funders                  [MaxFunders]ed25519.PublicKey
	RewardDurationEnd        uint64
}

func PoolAccountFromBytes(data []byte) (*PoolAccount, error) {
	var obj PoolAccount
	if err := obj.Unmarshal(data); err != nil {
		return nil, err
	}
	return &obj, nil
}

// Unmarshal decodes the pool layout without checking the account type. Use
// IsInitialized before trusting data from an arbitrary account.
func (obj *PoolAccount) Unmarshal(data []byte) error {
	record, err := schema.Decode(data, PoolAccountSchema)
	if err != nil {
		return err
	}

	var accountType uint8

	r := &recordReader{record: record}
	r.getUint8("accountType", &accountType)
	r.getKey("ownerWallet", &obj.OwnerWallet)
	r.getKey("stakingVault", &obj.StakingVault)
	r.getKey("stakingMint", &obj.StakingMint)
	r.getKey("rewardVault", &obj.RewardVault)
	r.getKey("rewardMint", &obj.RewardMint)
	r.getUint64("rewardRate", &obj.RewardRate)
	r.getUint64("rewardDuration", &obj.RewardDuration)
	r.getUint64("totalStakeLastUpdateTime", &obj.TotalStakeLastUpdateTime)
	r.getUint128("rewardPerTokenStored", &obj.RewardPerTokenStored)
	r.getUint32("userStakeCount", &obj.UserStakeCount)
	r.getUint8("pdaNonce", &obj.PdaNonce)

	funders := r.getStruct("funders")
	for i := range obj.Funders {
		funders.getKey(fmt.Sprintf("funder%d", i), &obj.Funders[i])
	}
	if funders.err != nil {
		r.err = funders.err
	}

	r.getUint64("rewardDurationEnd", &obj.RewardDurationEnd)
	if r.err != nil {
		return errors.Wrap(ErrInvalidAccountData, r.err.Error())
	}

	obj.AccountType = AccountType(accountType)
	return nil
}

func (obj *PoolAccount) Marshal() ([]byte, error) {
	funders := make(schema.Record, MaxFunders)
	for i, funder := range obj.Funders {
		funders[fmt.Sprintf("funder%d", i)] = keyOrZero(funder)
	}

	return schema.Encode(schema.Record{
		"accountType":              uint8(obj.AccountType),
		"ownerWallet":              keyOrZero(obj.OwnerWallet),
		"stakingVault":             keyOrZero(obj.StakingVault),
		"stakingMint":              keyOrZero(obj.StakingMint),
		"rewardVault":              keyOrZero(obj.RewardVault),
		"rewardMint":               keyOrZero(obj.RewardMint),
		"rewardRate":               obj.RewardRate,
		"rewardDuration":           obj.RewardDuration,
		"totalStakeLastUpdateTime": obj.TotalStakeLastUpdateTime,
		"rewardPerTokenStored":     bigOrZero(obj.RewardPerTokenStored),
		"userStakeCount":           obj.UserStakeCount,
		"pdaNonce":                 obj.PdaNonce,
		"funders":                  funders,
		"rewardDurationEnd":        obj.RewardDurationEnd,
	}, PoolAccountSchema)
}

// IsInitialized reports whether the leading tag marks this as a pool account.
func (obj *PoolAccount) IsInitialized() bool {
	return obj.AccountType == AccountTypePool
}

// ActiveFunders returns the non-empty funder slots.
func (obj *PoolAccount) ActiveFunders() []ed25519.PublicKey {
	var res []ed25519.PublicKey
	for _, funder := range obj.Funders {
		if len(funder) > 0 && !isZeroKey(funder) {
			res = append(res, funder)
		}
	}
	return res
}

// IsAuthorizedFunder reports whether key may fund the pool. The owner is
// always authorized.
func (obj *PoolAccount) IsAuthorizedFunder(key ed25519.PublicKey) bool {
	if isZeroKey(key) {
		return false
	}
	if bytes.Equal(key, obj.OwnerWallet) {
		return true
	}
	for _, funder := range obj.ActiveFunders() {
		if bytes.Equal(key, funder) {
			return true
		}
	}
	return false
}

// IsActive reports whether rewards are still accruing at unix time now.
func (obj *PoolAccount) IsActive(now int64) bool {
	return now >= 0 && uint64(now) < obj.RewardDurationEnd
}

// CanClose reports whether the program would accept a close pool instruction
// at unix time now.
func (obj *PoolAccount) CanClose(now int64) bool {
	if obj.RewardDurationEnd == 0 || now < 0 || uint64(now) <= obj.RewardDurationEnd {
		return false
	}
	return obj.UserStakeCount == 0
}

func (obj *PoolAccount) String() string {
	funders := make([]string, len(obj.Funders))
	for i, funder := range obj.Funders {
		funders[i] = base58.Encode(keyOrZero(funder))
	}

	return fmt.Sprintf(
		"Pool{account_type=%d,owner_wallet=%s,staking_vault=%s,staking_mint=%s,reward_vault=%s,reward_mint=%s,reward_rate=%d,reward_duration=%d,total_stake_last_update_time=%s,reward_per_token_stored=%s,user_stake_count=%d,pda_nonce=%d,funders=[%s],reward_duration_end=%s}",
		obj.AccountType,
		base58.Encode(obj.OwnerWallet),
		base58.Encode(obj.StakingVault),
		base58.Encode(obj.StakingMint),
		base58.Encode(obj.RewardVault),
		base58.Encode(obj.RewardMint),
		obj.RewardRate,
		obj.RewardDuration,
		time.Unix(int64(obj.TotalStakeLastUpdateTime), 0).UTC().String(),
		bigOrZero(obj.RewardPerTokenStored).String(),
		obj.UserStakeCount,
		obj.PdaNonce,
		strings.Join(funders, ","),
		time.Unix(int64(obj.RewardDurationEnd), 0).UTC().String(),
	)
}
