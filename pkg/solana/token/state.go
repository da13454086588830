package token

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/staking-client/pkg/solana/binary"
)

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L125
const AccountSize = 165

const optionSize = 4

var ErrInvalidAccountSize = errors.New("invalid token account size")

type Account struct {
	// The mint associated with this account
	Mint ed25519.PublicKey
	// The owner of this account.
	Owner ed25519.PublicKey
	// The amount of tokens this account holds.
	Amount uint64
	// If set, then the 'DelegatedAmount' represents the amount
	// authorized by the delegate.
	Delegate ed25519.PublicKey
	/// The account's state
	State AccountState
	// If set, this is a native token, and the value logs the rent-exempt reserve.
	IsNative *uint64
	// The amount delegated
	DelegatedAmount uint64
	// Optional authority to close the account.
	CloseAuthority ed25519.PublicKey
}

func (a *Account) Marshal() []byte {
	b := make([]byte, AccountSize)

	var offset int
	binary.PutKey32(b, a.Mint, &offset)
	binary.PutKey32(b, a.Owner, &offset)
	binary.PutUint64(b, a.Amount, &offset)
	putOptionalKey(b, a.Delegate, &offset)
	binary.PutUint8(b, uint8(a.State), &offset)
	if a.IsNative != nil {
		binary.PutUint32(b, 1, &offset)
		binary.PutUint64(b, *a.IsNative, &offset)
	} else {
		offset += optionSize + binary.Uint64Size
	}
	binary.PutUint64(b, a.DelegatedAmount, &offset)
	putOptionalKey(b, a.CloseAuthority, &offset)

	return b
}

func (a *Account) Unmarshal(b []byte) error {
	if len(b) != AccountSize {
		return ErrInvalidAccountSize
	}

	// Lengths are checked above, so the fixed offsets below can't fail.
	var offset int
	a.Mint, _ = binary.DecodeKey(b, offset)
	offset += binary.AddressSize
	a.Owner, _ = binary.DecodeKey(b, offset)
	offset += binary.AddressSize
	a.Amount, _ = binary.DecodeUint64(b, offset)
	offset += binary.Uint64Size
	a.Delegate = getOptionalKey(b, &offset)
	state, _ := binary.DecodeUint8(b, offset)
	a.State = AccountState(state)
	offset += binary.Uint8Size

	a.IsNative = nil
	if tag, _ := binary.DecodeUint32(b, offset); tag != 0 {
		isNative, _ := binary.DecodeUint64(b, offset+optionSize)
		a.IsNative = &isNative
	}
	offset += optionSize + binary.Uint64Size

	a.DelegatedAmount, _ = binary.DecodeUint64(b, offset)
	offset += binary.Uint64Size
	a.CloseAuthority = getOptionalKey(b, &offset)

	return nil
}

func putOptionalKey(dst []byte, key ed25519.PublicKey, offset *int) {
	if len(key) == 0 {
		*offset += optionSize + binary.AddressSize
		return
	}
	binary.PutUint32(dst, 1, offset)
	binary.PutKey32(dst, key, offset)
}

func getOptionalKey(src []byte, offset *int) ed25519.PublicKey {
	defer func() { *offset += optionSize + binary.AddressSize }()

	if tag, _ := binary.DecodeUint32(src, *offset); tag == 0 {
		return nil
	}
	key, _ := binary.DecodeKey(src, *offset+optionSize)
	return key
}
