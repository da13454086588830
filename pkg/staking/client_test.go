package staking

import (
	"context"
	"crypto/ed25519"
	"math/big"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/staking-client/pkg/solana"
	"github.com/code-payments/staking-client/pkg/solana/cwarstaking"
	"github.com/code-payments/staking-client/pkg/solana/memory"
	"github.com/code-payments/staking-client/pkg/solana/token"
	"github.com/code-payments/staking-client/pkg/testutil"
)

type testEnv struct {
	ctx    context.Context
	sc     *memory.Client
	client *Client

	program      ed25519.PublicKey
	pool         ed25519.PublicKey
	poolSigner   ed25519.PublicKey
	stakingMint  ed25519.PublicKey
	rewardMint   ed25519.PublicKey
	stakingVault ed25519.PublicKey
	rewardVault  ed25519.PublicKey
}

func setup(t *testing.T) *testEnv {
	return setupWithRentCacheTTL(t, 0)
}

func setupWithRentCacheTTL(t *testing.T, ttl time.Duration) *testEnv {
	keys := testutil.GenerateSolanaKeys(t, 6)

	env := &testEnv{
		ctx:          context.Background(),
		sc:           memory.New(),
		program:      keys[0],
		pool:         keys[1],
		stakingMint:  keys[2],
		rewardMint:   keys[3],
		stakingVault: keys[4],
		rewardVault:  keys[5],
	}

	var err error
	env.poolSigner, _, err = cwarstaking.GetPoolSignerAddress(&cwarstaking.GetPoolSignerAddressArgs{
		Program: env.program,
		Pool:    env.pool,
	})
	require.NoError(t, err)

	env.client = NewClient(env.sc, withManualTestOverrides(&testOverrides{
		programId:    base58.Encode(env.program),
		poolStorage:  base58.Encode(env.pool),
		stakingMint:  base58.Encode(env.stakingMint),
		rewardMint:   base58.Encode(env.rewardMint),
		stakingVault: base58.Encode(env.stakingVault),
		rewardVault:  base58.Encode(env.rewardVault),
		rentCacheTTL: ttl,
	}))

	return env
}

func (e *testEnv) newPool(now time.Time) *cwarstaking.PoolAccount {
	return &cwarstaking.PoolAccount{
		AccountType:              cwarstaking.AccountTypePool,
		OwnerWallet:              e.poolSigner,
		StakingVault:             e.stakingVault,
		StakingMint:              e.stakingMint,
		RewardVault:              e.rewardVault,
		RewardMint:               e.rewardMint,
		RewardRate:               1_000,
		RewardDuration:           cwarstaking.MinRewardDuration,
		TotalStakeLastUpdateTime: uint64(now.Unix()) - 100,
		RewardPerTokenStored:     new(big.Int),
		PdaNonce:                 255,
		RewardDurationEnd:        uint64(now.Unix()) + cwarstaking.MinRewardDuration,
	}
}

func (e *testEnv) setPool(t *testing.T, pool *cwarstaking.PoolAccount) {
	data, err := pool.Marshal()
	require.NoError(t, err)

	e.sc.SetAccount(e.pool, solana.AccountInfo{
		Data:     data,
		Owner:    e.program,
		Lamports: 1,
	})
}

func (e *testEnv) setUser(t *testing.T, wallet, pool ed25519.PublicKey, staked uint64) ed25519.PublicKey {
	address, nonce, err := cwarstaking.GetUserStorageAddress(&cwarstaking.GetUserStorageAddressArgs{
		Program: e.program,
		Wallet:  wallet,
		Pool:    pool,
	})
	require.NoError(t, err)

	user := &cwarstaking.UserAccount{
		AccountType:              cwarstaking.AccountTypeUser,
		UserWallet:               wallet,
		Pool:                     pool,
		BalanceStaked:            staked,
		Nonce:                    nonce,
		RewardsPerTokenCompleted: new(big.Int),
	}
	data, err := user.Marshal()
	require.NoError(t, err)

	e.sc.SetAccount(address, solana.AccountInfo{
		Data:     data,
		Owner:    e.program,
		Lamports: 1,
	})
	return address
}

func TestClient_GetPool(t *testing.T) {
	env := setup(t)
	now := time.Now()

	pool, err := env.client.GetPool(env.ctx)
	require.NoError(t, err)
	assert.Nil(t, pool)

	expected := env.newPool(now)
	env.setPool(t, expected)

	actual, err := env.client.GetPool(env.ctx)
	require.NoError(t, err)
	require.NotNil(t, actual)
	assert.True(t, actual.IsInitialized())
	assert.EqualValues(t, env.stakingVault, actual.StakingVault)
	assert.EqualValues(t, env.rewardMint, actual.RewardMint)
	assert.Equal(t, expected.RewardRate, actual.RewardRate)
	assert.Equal(t, expected.RewardDurationEnd, actual.RewardDurationEnd)
	assert.Equal(t, expected.PdaNonce, actual.PdaNonce)

	// Short data is surfaced rather than treated as absent
	logs := testutil.CaptureLogs(t)
	env.sc.SetAccount(env.pool, solana.AccountInfo{
		Data:  make([]byte, 10),
		Owner: env.program,
	})
	_, err = env.client.GetPool(env.ctx)
	assert.Error(t, err)

	require.NotNil(t, logs.LastEntry())
	assert.Equal(t, logrus.WarnLevel, logs.LastEntry().Level)
	assert.Equal(t, "staking/client", logs.LastEntry().Data["type"])
}

func TestClient_GetUser(t *testing.T) {
	env := setup(t)
	wallet := testutil.GenerateSolanaKey(t)

	user, err := env.client.GetUser(env.ctx, wallet)
	require.NoError(t, err)
	assert.Nil(t, user)

	address := env.setUser(t, wallet, env.pool, 500)

	derived, err := env.client.GetUserStorageAddress(env.ctx, wallet)
	require.NoError(t, err)
	assert.EqualValues(t, address, derived)

	user, err = env.client.GetUser(env.ctx, wallet)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, user.IsInitialized())
	assert.EqualValues(t, wallet, user.UserWallet)
	assert.EqualValues(t, env.pool, user.Pool)
	assert.EqualValues(t, 500, user.BalanceStaked)
}

func TestClient_GetUserPendingRewards(t *testing.T) {
	env := setup(t)
	wallet := testutil.GenerateSolanaKey(t)
	now := time.Now()

	env.sc.SetTokenAccount(env.stakingVault, env.stakingMint, env.poolSigner, 2_000)

	_, err := env.client.GetUserPendingRewards(env.ctx, wallet, now)
	assert.Equal(t, cwarstaking.ErrPoolNotFound, err)

	pool := env.newPool(now)
	env.setPool(t, pool)

	pending, err := env.client.GetUserPendingRewards(env.ctx, wallet, now)
	require.NoError(t, err)
	assert.EqualValues(t, 0, pending.Int64())

	env.setUser(t, wallet, env.pool, 500)
	user, err := env.client.GetUser(env.ctx, wallet)
	require.NoError(t, err)

	pending, err = env.client.GetUserPendingRewards(env.ctx, wallet, now)
	require.NoError(t, err)
	assert.Equal(t, cwarstaking.PendingRewards(pool, user, 2_000, now.Unix()).String(), pending.String())
	assert.True(t, pending.Sign() > 0)

	// Staking vault must exist
	env.sc.DeleteAccount(env.stakingVault)
	_, err = env.client.GetUserPendingRewards(env.ctx, wallet, now)
	assert.True(t, errors.Is(err, solana.ErrNoBalance))

	// Unless the wallet has nothing staked to begin with
	pending, err = env.client.GetUserPendingRewards(env.ctx, testutil.GenerateSolanaKey(t), now)
	require.NoError(t, err)
	assert.EqualValues(t, 0, pending.Int64())
}

func TestClient_GetUserPendingRewards_ObservesUpdates(t *testing.T) {
	env := setupWithRentCacheTTL(t, time.Hour)
	wallet := testutil.GenerateSolanaKey(t)
	now := time.Now()

	env.sc.SetTokenAccount(env.stakingVault, env.stakingMint, env.poolSigner, 2_000)
	pool := env.newPool(now)
	env.setPool(t, pool)
	env.setUser(t, wallet, env.pool, 500)
	user, err := env.client.GetUser(env.ctx, wallet)
	require.NoError(t, err)

	before, err := env.client.GetUserPendingRewards(env.ctx, wallet, now)
	require.NoError(t, err)

	pool.RewardPerTokenStored = new(big.Int).Mul(big.NewInt(1_000), cwarstaking.Precision)
	env.setPool(t, pool)

	after, err := env.client.GetUserPendingRewards(env.ctx, wallet, now)
	require.NoError(t, err)
	assert.Equal(t, cwarstaking.PendingRewards(pool, user, 2_000, now.Unix()).String(), after.String())
	assert.True(t, after.Cmp(before) > 0)

	// Vault balance changes are observed too
	env.sc.SetTokenAccount(env.stakingVault, env.stakingMint, env.poolSigner, 4_000)
	latest, err := env.client.GetUserPendingRewards(env.ctx, wallet, now)
	require.NoError(t, err)
	assert.Equal(t, cwarstaking.PendingRewards(pool, user, 4_000, now.Unix()).String(), latest.String())
}

func TestClient_GetPoolUsers(t *testing.T) {
	env := setup(t)
	now := time.Now()
	wallets := testutil.GenerateSolanaKeys(t, 3)
	otherPool := testutil.GenerateSolanaKey(t)

	users, err := env.client.GetPoolUsers(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	env.setPool(t, env.newPool(now))
	env.setUser(t, wallets[0], env.pool, 10)
	env.setUser(t, wallets[1], env.pool, 20)
	env.setUser(t, wallets[2], otherPool, 30)

	users, err = env.client.GetPoolUsers(env.ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	var total uint64
	for _, user := range users {
		assert.EqualValues(t, env.pool, user.Pool)
		total += user.BalanceStaked
	}
	assert.EqualValues(t, 30, total)
}

func TestClient_EstimateFundPool(t *testing.T) {
	env := setup(t)
	now := time.Unix(1_700_000_000, 0)

	_, _, err := env.client.EstimateFundPool(env.ctx, 1_000_000, now)
	assert.Equal(t, cwarstaking.ErrPoolNotFound, err)

	pool := env.newPool(now)
	env.setPool(t, pool)

	rate, end, err := env.client.EstimateFundPool(env.ctx, 86_400_000, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000+1_000, rate)
	assert.EqualValues(t, now.Unix()+cwarstaking.MinRewardDuration, end)
}

func TestClient_Balances(t *testing.T) {
	env := setup(t)
	wallet := testutil.GenerateSolanaKey(t)

	_, err := env.client.GetStakingVaultBalance(env.ctx)
	assert.Error(t, err)

	env.sc.SetTokenAccount(env.stakingVault, env.stakingMint, env.poolSigner, 123)
	env.sc.SetTokenAccount(env.rewardVault, env.rewardMint, env.poolSigner, 456)

	balance, err := env.client.GetStakingVaultBalance(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 123, balance)

	balance, err = env.client.GetRewardVaultBalance(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 456, balance)

	balance, err = env.client.GetStakingBalance(env.ctx, wallet)
	require.NoError(t, err)
	assert.Zero(t, balance)

	stakingAta, err := token.GetAssociatedAccount(wallet, env.stakingMint)
	require.NoError(t, err)
	rewardAta, err := token.GetAssociatedAccount(wallet, env.rewardMint)
	require.NoError(t, err)

	env.sc.SetTokenAccount(stakingAta, env.stakingMint, wallet, 789)
	env.sc.SetTokenAccount(rewardAta, env.rewardMint, wallet, 1011)

	balance, err = env.client.GetStakingBalance(env.ctx, wallet)
	require.NoError(t, err)
	assert.EqualValues(t, 789, balance)

	balance, err = env.client.GetRewardBalance(env.ctx, wallet)
	require.NoError(t, err)
	assert.EqualValues(t, 1011, balance)

	// An account of the wrong mint at the associated address
	env.sc.SetTokenAccount(rewardAta, env.stakingMint, wallet, 1011)
	_, err = env.client.GetRewardBalance(env.ctx, wallet)
	assert.True(t, errors.Is(err, token.ErrInvalidTokenAccount))
}

func TestClient_AccountReadsAreFresh(t *testing.T) {
	env := setupWithRentCacheTTL(t, time.Hour)
	env.setPool(t, env.newPool(time.Now()))

	pool, err := env.client.GetPool(env.ctx)
	require.NoError(t, err)
	require.NotNil(t, pool)

	env.sc.DeleteAccount(env.pool)
	pool, err = env.client.GetPool(env.ctx)
	require.NoError(t, err)
	assert.Nil(t, pool)
}

func TestClient_RentExemptionCache(t *testing.T) {
	uncached := setup(t)
	cached := setupWithRentCacheTTL(t, time.Hour)

	for _, env := range []*testEnv{uncached, cached} {
		env.sc.SetLamportsPerByte(10)
	}

	initial, err := cached.client.getRentExemption(token.AccountSize)
	require.NoError(t, err)
	assert.EqualValues(t, (token.AccountSize+128)*10, initial)

	for _, env := range []*testEnv{uncached, cached} {
		env.sc.SetLamportsPerByte(20)
	}

	lamports, err := cached.client.getRentExemption(token.AccountSize)
	require.NoError(t, err)
	assert.Equal(t, initial, lamports)

	// Other sizes are looked up separately
	lamports, err = cached.client.getRentExemption(cwarstaking.PoolAccountSize)
	require.NoError(t, err)
	assert.EqualValues(t, (cwarstaking.PoolAccountSize+128)*20, lamports)

	lamports, err = uncached.client.getRentExemption(token.AccountSize)
	require.NoError(t, err)
	assert.EqualValues(t, (token.AccountSize+128)*20, lamports)
}

func TestClient_Commitment(t *testing.T) {
	client := NewClient(memory.New(), withManualTestOverrides(&testOverrides{}))
	commitment, err := client.getCommitment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solana.CommitmentConfirmed, commitment)

	client = NewClientForEnvironment(solana.EnvironmentLocal, withManualTestOverrides(&testOverrides{}))
	commitment, err = client.getCommitment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solana.EnvironmentLocal.Commitment, commitment)

	// Configured commitments take precedence over the environment
	client = NewClientForEnvironment(solana.EnvironmentLocal, withManualTestOverrides(&testOverrides{
		commitment: "finalized",
	}))
	commitment, err = client.getCommitment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solana.CommitmentFinalized, commitment)

	client = NewClient(memory.New(), withManualTestOverrides(&testOverrides{
		commitment: "eventually",
	}))
	_, err = client.getCommitment(context.Background())
	assert.Error(t, err)
}

func TestClient_MissingConfig(t *testing.T) {
	client := NewClient(memory.New(), withManualTestOverrides(&testOverrides{}))

	_, err := client.GetPool(context.Background())
	assert.True(t, errors.Is(err, ErrMissingConfig))

	client = NewClient(memory.New(), withManualTestOverrides(&testOverrides{
		programId:   "not-base58-0OIl",
		poolStorage: base58.Encode(testutil.GenerateSolanaKey(t)),
	}))
	_, err = client.GetUser(context.Background(), testutil.GenerateSolanaKey(t))
	assert.Error(t, err)
}

func TestClient_FormatAmounts(t *testing.T) {
	env := setup(t)

	assert.Equal(t, "1.500000000", env.client.FormatStakingAmount(env.ctx, 1_500_000_000))
	assert.Equal(t, "0.000000001", env.client.FormatRewardAmount(env.ctx, big.NewInt(1)))
}
