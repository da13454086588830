package memory

import (
	"bytes"
	"crypto/ed25519"
	"sort"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/staking-client/pkg/solana"
	"github.com/code-payments/staking-client/pkg/solana/token"
)

// Client is an in memory solana.Client backed by a fixed set of accounts.
type Client struct {
	mu        sync.Mutex
	accounts  map[string]solana.AccountInfo
	blockhash solana.Blockhash
	slot      uint64

	lamportsPerByte uint64
}

// New returns a new in memory solana.Client with no accounts.
func New() *Client {
	c := &Client{
		accounts:        make(map[string]solana.AccountInfo),
		slot:            1,
		lamportsPerByte: 6960,
	}
	c.blockhash[0] = 1
	return c
}

// SetAccount creates or replaces the account at key.
func (c *Client) SetAccount(key ed25519.PublicKey, info solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.slot++
	c.accounts[base58.Encode(key)] = cloneAccountInfo(info)
}

// SetTokenAccount stores an initialized token account owned by the token
// program.
func (c *Client) SetTokenAccount(key, mint, owner ed25519.PublicKey, amount uint64) {
	account := token.Account{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
		State:  token.AccountStateInitialized,
	}

	c.SetAccount(key, solana.AccountInfo{
		Data:  account.Marshal(),
		Owner: token.ProgramKey,
	})
}

// DeleteAccount removes the account at key, if it exists.
func (c *Client) DeleteAccount(key ed25519.PublicKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.slot++
	delete(c.accounts, base58.Encode(key))
}

// SetBlockhash sets the value returned by GetLatestBlockhash.
func (c *Client) SetBlockhash(bh solana.Blockhash) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.blockhash = bh
}

// SetLamportsPerByte changes the rate used for rent exemption.
func (c *Client) SetLamportsPerByte(lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lamportsPerByte = lamports
}

// Implements solana.Client.GetAccountInfo
func (c *Client) GetAccountInfo(key ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.accounts[base58.Encode(key)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return cloneAccountInfo(info), nil
}

// Implements solana.Client.GetBalance
func (c *Client) GetBalance(key ed25519.PublicKey) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.accounts[base58.Encode(key)]
	if !ok {
		return 0, solana.ErrNoBalance
	}
	return info.Lamports, nil
}

// Implements solana.Client.GetFilteredProgramAccounts
func (c *Client) GetFilteredProgramAccounts(program ed25519.PublicKey, offset uint, filterValue []byte) ([]string, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res []string
	for address, info := range c.accounts {
		if !bytes.Equal(info.Owner, program) {
			continue
		}
		if uint(len(info.Data)) < offset+uint(len(filterValue)) {
			continue
		}
		if !bytes.Equal(info.Data[offset:offset+uint(len(filterValue))], filterValue) {
			continue
		}
		res = append(res, address)
	}
	sort.Strings(res)

	return res, c.slot, nil
}

// Implements solana.Client.GetLatestBlockhash
func (c *Client) GetLatestBlockhash() (solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.blockhash, nil
}

// Implements solana.Client.GetMinimumBalanceForRentExemption
//
// Rent is a flat rate per byte including the account header, which is close
// enough to the cluster's formula for tests.
func (c *Client) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	const accountHeaderSize = 128

	c.mu.Lock()
	defer c.mu.Unlock()

	return (size + accountHeaderSize) * c.lamportsPerByte, nil
}

// Implements solana.Client.GetTokenAccountBalance
func (c *Client) GetTokenAccountBalance(key ed25519.PublicKey, _ solana.Commitment) (uint64, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.accounts[base58.Encode(key)]
	if !ok {
		return 0, 0, solana.ErrNoBalance
	}
	if !bytes.Equal(info.Owner, token.ProgramKey) {
		return 0, 0, errors.Errorf("account %s is not a token account", base58.Encode(key))
	}

	var account token.Account
	if err := account.Unmarshal(info.Data); err != nil {
		return 0, 0, errors.Wrap(err, "failed to unmarshal token account")
	}
	return account.Amount, c.slot, nil
}

func cloneAccountInfo(info solana.AccountInfo) solana.AccountInfo {
	cloned := info
	cloned.Data = append([]byte(nil), info.Data...)
	cloned.Owner = append(ed25519.PublicKey(nil), info.Owner...)
	return cloned
}
