package cwarstaking

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrInvalidAccountData = errors.New("unexpected account data")
	ErrPoolNotFound       = errors.New("pool does not exist")
	ErrDurationTooShort   = errors.New("reward duration too short")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
)

var (
	SYSTEM_PROGRAM_ID               = ed25519.PublicKey(mustBase58Decode("11111111111111111111111111111111"))
	SPL_TOKEN_PROGRAM_ID            = ed25519.PublicKey(mustBase58Decode("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"))
	SPL_ASSOCIATED_TOKEN_PROGRAM_ID = ed25519.PublicKey(mustBase58Decode("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"))
)

const (
	// MinRewardDuration is the shortest reward duration, in seconds, the
	// program accepts when a pool is initialized.
	MinRewardDuration = 86400

	MaxFunders = 5

	DefaultStakingMintDecimals = 9
	DefaultRewardMintDecimals  = 9
)

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
