package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/staking-client/pkg/solana"
)

var (
	// ErrAccountNotFound indicates there is no account for the given address.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidTokenAccount indicates that a Solana account exists at the
	// given address, but it is either not initialized, or not configured correctly.
	ErrInvalidTokenAccount = errors.New("invalid token account")
)

// Client provides utilities for accessing token accounts for a given mint.
type Client struct {
	sc   solana.Client
	mint ed25519.PublicKey
}

// NewClient creates a new Client.
func NewClient(sc solana.Client, mint ed25519.PublicKey) *Client {
	return &Client{
		sc:   sc,
		mint: mint,
	}
}

// Mint returns the mint accounts are checked against.
func (c *Client) Mint() ed25519.PublicKey {
	return c.mint
}

// GetAccount returns the token account at address.
//
// ErrInvalidTokenAccount, wrapped with the reason, is returned when the
// account isn't an initialized token account of the client's mint.
func (c *Client) GetAccount(address ed25519.PublicKey, commitment solana.Commitment) (*Account, error) {
	info, err := c.sc.GetAccountInfo(address, commitment)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if !bytes.Equal(info.Owner, ProgramKey) {
		return nil, errors.Wrap(ErrInvalidTokenAccount, "not owned by the token program")
	}

	var account Account
	if err := account.Unmarshal(info.Data); err != nil {
		return nil, errors.Wrap(ErrInvalidTokenAccount, err.Error())
	}

	switch {
	case account.State == AccountStateUninitialized:
		return nil, errors.Wrap(ErrInvalidTokenAccount, "uninitialized")
	case !bytes.Equal(c.mint, account.Mint):
		return nil, errors.Wrapf(ErrInvalidTokenAccount, "mint is %s", base58.Encode(account.Mint))
	}
	return &account, nil
}

// GetAssociatedAccount returns the wallet's associated account for the
// client's mint along with its address.
func (c *Client) GetAssociatedAccount(wallet ed25519.PublicKey, commitment solana.Commitment) (*Account, ed25519.PublicKey, error) {
	address, err := GetAssociatedAccount(wallet, c.mint)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive associated account")
	}

	account, err := c.GetAccount(address, commitment)
	if err != nil {
		return nil, address, err
	}
	return account, address, nil
}
