package cwarstaking

import (
	"math/big"
)

const secondsPerDay = 86400

// ToDecimal renders a raw token amount with the given number of decimals.
func ToDecimal(raw *big.Int, decimals uint8) string {
	if raw == nil {
		raw = new(big.Int)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(raw, scale).FloatString(int(decimals))
}

// ToQuarks scales whole tokens to raw units.
func ToQuarks(whole uint64, decimals uint8) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return scale.Mul(scale, new(big.Int).SetUint64(whole))
}

func (obj *PoolAccount) RewardDurationInDays() uint64 {
	return obj.RewardDuration / secondsPerDay
}

// RewardRateInTokens is the per second reward rate in whole reward tokens,
// truncated.
func (obj *PoolAccount) RewardRateInTokens(decimals uint8) uint64 {
	rate := new(big.Int).SetUint64(obj.RewardRate)
	return rate.Quo(rate, ToQuarks(1, decimals)).Uint64()
}

// RewardPerTokenStoredInTokens divides the accumulator by both Precision and
// the reward token's decimals.
func (obj *PoolAccount) RewardPerTokenStoredInTokens(decimals uint8) *big.Int {
	divisor := new(big.Int).Mul(Precision, ToQuarks(1, decimals))
	return new(big.Int).Quo(bigOrZero(obj.RewardPerTokenStored), divisor)
}

func (obj *UserAccount) BalanceStakedInTokens(decimals uint8) uint64 {
	return obj.BalanceStaked / ToQuarks(1, decimals).Uint64()
}

func (obj *UserAccount) RewardPerTokenPendingInTokens(decimals uint8) uint64 {
	return obj.RewardPerTokenPending / ToQuarks(1, decimals).Uint64()
}

func (obj *UserAccount) RewardsPerTokenCompletedInTokens(decimals uint8) *big.Int {
	divisor := new(big.Int).Mul(Precision, ToQuarks(1, decimals))
	return new(big.Int).Quo(bigOrZero(obj.RewardsPerTokenCompleted), divisor)
}
