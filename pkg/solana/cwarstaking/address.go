package cwarstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/staking-client/pkg/solana"
)

type GetUserStorageAddressArgs struct {
	Program ed25519.PublicKey
	Wallet  ed25519.PublicKey
	Pool    ed25519.PublicKey
}

// GetUserStorageAddress derives the storage account holding a wallet's stake
// in a pool. The bump is the nonce passed to the create user instruction.
func GetUserStorageAddress(args *GetUserStorageAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		args.Program,
		args.Wallet,
		args.Pool,
	)
}

type GetPoolSignerAddressArgs struct {
	Program ed25519.PublicKey
	Pool    ed25519.PublicKey
}

// GetPoolSignerAddress derives the authority over a pool's vaults. The bump
// is the pool nonce passed to the initialize pool instruction.
func GetPoolSignerAddress(args *GetPoolSignerAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		args.Program,
		args.Pool,
	)
}
