package token_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/staking-client/pkg/solana"
	"github.com/code-payments/staking-client/pkg/solana/memory"
	"github.com/code-payments/staking-client/pkg/solana/token"
	"github.com/code-payments/staking-client/pkg/testutil"
)

func TestClient_GetAssociatedAccount(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)
	wallet, mint, otherMint := keys[0], keys[1], keys[2]

	sc := memory.New()
	c := token.NewClient(sc, mint)
	assert.EqualValues(t, mint, c.Mint())

	_, address, err := c.GetAssociatedAccount(wallet, solana.CommitmentConfirmed)
	assert.Equal(t, token.ErrAccountNotFound, err)

	expected, err := token.GetAssociatedAccount(wallet, mint)
	require.NoError(t, err)
	assert.EqualValues(t, expected, address)

	sc.SetTokenAccount(address, mint, wallet, 42)
	account, _, err := c.GetAssociatedAccount(wallet, solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 42, account.Amount)
	assert.EqualValues(t, wallet, account.Owner)

	sc.SetTokenAccount(address, otherMint, wallet, 42)
	_, _, err = c.GetAssociatedAccount(wallet, solana.CommitmentConfirmed)
	assert.True(t, errors.Is(err, token.ErrInvalidTokenAccount))
	assert.Contains(t, err.Error(), "mint is")

	sc.SetAccount(address, solana.AccountInfo{Owner: wallet, Data: make([]byte, token.AccountSize)})
	_, _, err = c.GetAssociatedAccount(wallet, solana.CommitmentConfirmed)
	assert.True(t, errors.Is(err, token.ErrInvalidTokenAccount))

	sc.SetAccount(address, solana.AccountInfo{Owner: token.ProgramKey, Data: make([]byte, token.AccountSize)})
	_, _, err = c.GetAssociatedAccount(wallet, solana.CommitmentConfirmed)
	assert.True(t, errors.Is(err, token.ErrInvalidTokenAccount))
	assert.Contains(t, err.Error(), "uninitialized")
}
