package cwarstaking

import (
	"crypto/ed25519"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/staking-client/pkg/solana/binary"
	"github.com/code-payments/staking-client/pkg/solana/schema"
	"github.com/code-payments/staking-client/pkg/testutil"
)

func newTestPool(t *testing.T) *PoolAccount {
	keys := testutil.GenerateSolanaKeys(t, 7)

	stored, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	return &PoolAccount{
		AccountType:              AccountTypePool,
		OwnerWallet:              keys[0],
		StakingVault:             keys[1],
		StakingMint:              keys[2],
		RewardVault:              keys[3],
		RewardMint:               keys[4],
		RewardRate:               1_000_000,
		RewardDuration:           30 * MinRewardDuration,
		TotalStakeLastUpdateTime: 1_650_000_000,
		RewardPerTokenStored:     stored,
		UserStakeCount:           42,
		PdaNonce:                 254,
		Funders: [MaxFunders]ed25519.PublicKey{
			keys[5],
			keys[6],
			make(ed25519.PublicKey, ed25519.PublicKeySize),
			make(ed25519.PublicKey, ed25519.PublicKeySize),
			make(ed25519.PublicKey, ed25519.PublicKeySize),
		},
		RewardDurationEnd: 1_650_000_000 + 30*MinRewardDuration,
	}
}

func newTestUser(t *testing.T, pool ed25519.PublicKey) *UserAccount {
	completed, ok := new(big.Int).SetString("98765432109876543210", 10)
	require.True(t, ok)

	return &UserAccount{
		AccountType:              AccountTypeUser,
		UserWallet:               testutil.GenerateSolanaKey(t),
		Pool:                     pool,
		BalanceStaked:            5_000_000_000,
		Nonce:                    253,
		RewardPerTokenPending:    17,
		RewardsPerTokenCompleted: completed,
	}
}

func assertPoolEqual(t *testing.T, expected, actual *PoolAccount) {
	assert.Equal(t, expected.AccountType, actual.AccountType)
	assert.EqualValues(t, expected.OwnerWallet, actual.OwnerWallet)
	assert.EqualValues(t, expected.StakingVault, actual.StakingVault)
	assert.EqualValues(t, expected.StakingMint, actual.StakingMint)
	assert.EqualValues(t, expected.RewardVault, actual.RewardVault)
	assert.EqualValues(t, expected.RewardMint, actual.RewardMint)
	assert.Equal(t, expected.RewardRate, actual.RewardRate)
	assert.Equal(t, expected.RewardDuration, actual.RewardDuration)
	assert.Equal(t, expected.TotalStakeLastUpdateTime, actual.TotalStakeLastUpdateTime)
	assert.Equal(t, expected.RewardPerTokenStored.String(), actual.RewardPerTokenStored.String())
	assert.Equal(t, expected.UserStakeCount, actual.UserStakeCount)
	assert.Equal(t, expected.PdaNonce, actual.PdaNonce)
	for i := range expected.Funders {
		assert.EqualValues(t, expected.Funders[i], actual.Funders[i])
	}
	assert.Equal(t, expected.RewardDurationEnd, actual.RewardDurationEnd)
}

func assertUserEqual(t *testing.T, expected, actual *UserAccount) {
	assert.Equal(t, expected.AccountType, actual.AccountType)
	assert.EqualValues(t, expected.UserWallet, actual.UserWallet)
	assert.EqualValues(t, expected.Pool, actual.Pool)
	assert.Equal(t, expected.BalanceStaked, actual.BalanceStaked)
	assert.Equal(t, expected.Nonce, actual.Nonce)
	assert.Equal(t, expected.RewardPerTokenPending, actual.RewardPerTokenPending)
	assert.Equal(t, expected.RewardsPerTokenCompleted.String(), actual.RewardsPerTokenCompleted.String())
}

func TestAccountSizes(t *testing.T) {
	assert.Equal(t, 374, PoolAccountSize)
	assert.Equal(t, PoolAccountSize, PoolAccountSchema.Size())

	assert.Equal(t, 98, UserAccountSize)
	assert.Equal(t, UserAccountSize, UserAccountSchema.Size())
}

func TestPoolAccount_RoundTrip(t *testing.T) {
	expected := newTestPool(t)

	data, err := expected.Marshal()
	require.NoError(t, err)
	require.Len(t, data, PoolAccountSize)

	actual, err := PoolAccountFromBytes(data)
	require.NoError(t, err)
	assertPoolEqual(t, expected, actual)

	// Layout spot checks
	assert.EqualValues(t, AccountTypePool, data[0])
	assert.EqualValues(t, expected.OwnerWallet, data[1:33])
	assert.EqualValues(t, expected.PdaNonce, data[205])
}

func TestUserAccount_RoundTrip(t *testing.T) {
	expected := newTestUser(t, testutil.GenerateSolanaKey(t))

	data, err := expected.Marshal()
	require.NoError(t, err)
	require.Len(t, data, UserAccountSize)

	actual, err := UserAccountFromBytes(data)
	require.NoError(t, err)
	assertUserEqual(t, expected, actual)

	assert.EqualValues(t, AccountTypeUser, data[0])
	assert.EqualValues(t, expected.Nonce, data[73])
}

func TestAccounts_TrailingBytesIgnored(t *testing.T) {
	pool := newTestPool(t)
	poolData, err := pool.Marshal()
	require.NoError(t, err)

	decodedPool, err := PoolAccountFromBytes(append(poolData, make([]byte, 128)...))
	require.NoError(t, err)
	assertPoolEqual(t, pool, decodedPool)

	user := newTestUser(t, pool.StakingVault)
	userData, err := user.Marshal()
	require.NoError(t, err)

	decodedUser, err := UserAccountFromBytes(append(userData, 0xff))
	require.NoError(t, err)
	assertUserEqual(t, user, decodedUser)
}

func TestAccounts_ShortBufferAtEveryBoundary(t *testing.T) {
	pool := newTestPool(t)
	poolData, err := pool.Marshal()
	require.NoError(t, err)

	for _, boundary := range fieldBoundaries(PoolAccountSchema) {
		_, err := PoolAccountFromBytes(poolData[:boundary-1])
		assertBufferTooShort(t, err, boundary)
	}

	user := newTestUser(t, pool.StakingVault)
	userData, err := user.Marshal()
	require.NoError(t, err)

	for _, boundary := range fieldBoundaries(UserAccountSchema) {
		_, err := UserAccountFromBytes(userData[:boundary-1])
		assertBufferTooShort(t, err, boundary)
	}
}

func TestAccounts_AccountTypeNotChecked(t *testing.T) {
	user := newTestUser(t, testutil.GenerateSolanaKey(t))
	user.AccountType = AccountTypePool

	data, err := user.Marshal()
	require.NoError(t, err)

	decoded, err := UserAccountFromBytes(data)
	require.NoError(t, err)
	assert.False(t, decoded.IsInitialized())

	decoded.AccountType = AccountTypeUser
	assert.True(t, decoded.IsInitialized())

	pool, err := PoolAccountFromBytes(make([]byte, PoolAccountSize))
	require.NoError(t, err)
	assert.False(t, pool.IsInitialized())
	assert.Equal(t, "0", pool.RewardPerTokenStored.String())
}

func TestPoolAccount_Funders(t *testing.T) {
	pool := newTestPool(t)

	funders := pool.ActiveFunders()
	require.Len(t, funders, 2)
	assert.EqualValues(t, pool.Funders[0], funders[0])
	assert.EqualValues(t, pool.Funders[1], funders[1])

	assert.True(t, pool.IsAuthorizedFunder(pool.OwnerWallet))
	assert.True(t, pool.IsAuthorizedFunder(pool.Funders[1]))
	assert.False(t, pool.IsAuthorizedFunder(testutil.GenerateSolanaKey(t)))
	assert.False(t, pool.IsAuthorizedFunder(make(ed25519.PublicKey, ed25519.PublicKeySize)))
}

func TestPoolAccount_CanClose(t *testing.T) {
	pool := newTestPool(t)
	end := int64(pool.RewardDurationEnd)

	assert.True(t, pool.IsActive(end-1))
	assert.False(t, pool.IsActive(end))

	// Users still staked
	assert.False(t, pool.CanClose(end+1))

	pool.UserStakeCount = 0
	assert.False(t, pool.CanClose(end-1))
	assert.True(t, pool.CanClose(end+1))

	pool.RewardDurationEnd = 0
	assert.False(t, pool.CanClose(end+1))
}

func TestAccounts_String(t *testing.T) {
	pool := newTestPool(t)
	assert.Contains(t, pool.String(), "reward_per_token_stored=123456789012345678901234567890")

	user := newTestUser(t, pool.StakingVault)
	assert.Contains(t, user.String(), "balance_staked=5000000000")
}

func assertBufferTooShort(t *testing.T, err error, boundary int) {
	require.Error(t, err, "boundary %d", boundary)

	var decodeErr *schema.SchemaDecodeError
	assert.True(t, errors.As(err, &decodeErr), "boundary %d", boundary)

	var tooShort *binary.BufferTooShortError
	require.True(t, errors.As(err, &tooShort), "boundary %d", boundary)
	assert.Equal(t, boundary-1, tooShort.Length)
}

func fieldBoundaries(s *schema.Schema) []int {
	var res []int
	var walk func(s *schema.Schema, offset int) int
	walk = func(s *schema.Schema, offset int) int {
		for _, field := range s.Fields {
			if field.Type.Kind == schema.KindStruct {
				offset = walk(field.Type.Schema, offset)
				continue
			}
			offset += field.Type.Size()
			res = append(res, offset)
		}
		return offset
	}
	walk(s, 0)
	return res
}
