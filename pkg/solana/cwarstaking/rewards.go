package cwarstaking

import (
	"math"
	"math/big"
	"time"

	"github.com/pkg/errors"
)

// Precision is the fixed point scale applied to per token reward
// accumulators (u64::MAX).
var Precision = new(big.Int).SetUint64(math.MaxUint64)

var ErrRateOverflow = errors.New("reward rate overflows u64")

// LastTimeRewardApplicable is the latest unix time, no later than now, at
// which the pool accrues rewards.
func LastTimeRewardApplicable(pool *PoolAccount, now int64) uint64 {
	if now < 0 {
		return 0
	}
	if uint64(now) < pool.RewardDurationEnd {
		return uint64(now)
	}
	return pool.RewardDurationEnd
}

// RewardPerToken reconstructs the pool's reward per token accumulator at unix
// time now given the staking vault's raw balance. With nothing staked, or when
// the pool snapshot is already past the last applicable time, the stored
// accumulator is returned unchanged.
func RewardPerToken(pool *PoolAccount, totalStaked uint64, now int64) *big.Int {
	stored := new(big.Int).Set(bigOrZero(pool.RewardPerTokenStored))
	if totalStaked == 0 {
		return stored
	}

	lastApplicable := LastTimeRewardApplicable(pool, now)
	if lastApplicable <= pool.TotalStakeLastUpdateTime {
		// Skew: now is behind the pool's last update (local clock lag), or
		// the pool was updated after its reward period ended. Negative elapsed
		// time accrues nothing rather than reducing the accumulator.
		return stored
	}

	elapsed := new(big.Int).SetUint64(lastApplicable - pool.TotalStakeLastUpdateTime)

	accrued := new(big.Int).Mul(elapsed, new(big.Int).SetUint64(pool.RewardRate))
	accrued.Mul(accrued, Precision)
	accrued.Quo(accrued, new(big.Int).SetUint64(totalStaked))

	return stored.Add(stored, accrued)
}

// PendingRewards is the user's unclaimed reward in raw reward token units.
// A nil user has nothing pending.
//
// The accumulator difference is divided by Precision before the pending per
// token amount is added, and only then multiplied by the staked balance.
func PendingRewards(pool *PoolAccount, user *UserAccount, totalStaked uint64, now int64) *big.Int {
	if user == nil {
		return new(big.Int)
	}

	current := RewardPerToken(pool, totalStaked, now)

	diff := new(big.Int).Sub(current, bigOrZero(user.RewardsPerTokenCompleted))
	if diff.Sign() < 0 {
		// Skew: the user snapshot was written at a later pool state than the
		// pool snapshot, or the elapsed clamp above left the accumulator
		// behind. Nothing is pending per token in that case.
		diff.SetInt64(0)
	}

	perToken := diff.Quo(diff, Precision)
	perToken.Add(perToken, new(big.Int).SetUint64(user.RewardPerTokenPending))

	return perToken.Mul(perToken, new(big.Int).SetUint64(user.BalanceStaked))
}

type EstimatePendingRewardsArgs struct {
	Pool                *PoolAccount
	User                *UserAccount
	StakingVaultBalance uint64
	Now                 time.Time
}

func EstimatePendingRewards(args *EstimatePendingRewardsArgs) (*big.Int, error) {
	if args.Pool == nil {
		return nil, ErrPoolNotFound
	}
	return PendingRewards(args.Pool, args.User, args.StakingVaultBalance, args.Now.Unix()), nil
}

type EstimateFundPoolArgs struct {
	Pool   *PoolAccount
	Amount uint64
	Now    time.Time
}

// EstimateFundPool returns the reward rate and reward duration end the pool
// will have after being funded with Amount at Now. Rewards still owed for the
// remainder of an active period are rolled into the new rate.
func EstimateFundPool(args *EstimateFundPoolArgs) (rate uint64, end uint64, err error) {
	if args.Pool == nil {
		return 0, 0, ErrPoolNotFound
	}
	if args.Pool.RewardDuration == 0 {
		return 0, 0, ErrDurationTooShort
	}

	now := uint64(0)
	if args.Now.Unix() > 0 {
		now = uint64(args.Now.Unix())
	}

	total := new(big.Int).SetUint64(args.Amount)
	if now < args.Pool.RewardDurationEnd {
		remaining := new(big.Int).SetUint64(args.Pool.RewardDurationEnd - now)
		total.Add(total, remaining.Mul(remaining, new(big.Int).SetUint64(args.Pool.RewardRate)))
	}
	total.Quo(total, new(big.Int).SetUint64(args.Pool.RewardDuration))

	if !total.IsUint64() {
		return 0, 0, ErrRateOverflow
	}
	if now > math.MaxUint64-args.Pool.RewardDuration {
		return 0, 0, ErrRateOverflow
	}

	return total.Uint64(), now + args.Pool.RewardDuration, nil
}
