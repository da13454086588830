package staking

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/staking-client/pkg/config"
	"github.com/code-payments/staking-client/pkg/metrics"
	"github.com/code-payments/staking-client/pkg/solana/token"
)

// GetStakingVaultBalance returns the raw balance of the pool's staking vault,
// which is the total amount staked.
func (c *Client) GetStakingVaultBalance(ctx context.Context) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetStakingVaultBalance")
	defer tracer.End()

	balance, err := c.getVaultBalance(ctx, c.conf.stakingVault, "staking vault")
	tracer.OnError(err)
	return balance, err
}

// GetRewardVaultBalance returns the raw balance of the pool's reward vault.
func (c *Client) GetRewardVaultBalance(ctx context.Context) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetRewardVaultBalance")
	defer tracer.End()

	balance, err := c.getVaultBalance(ctx, c.conf.rewardVault, "reward vault")
	tracer.OnError(err)
	return balance, err
}

// GetStakingBalance returns the raw staking token balance held in the wallet's
// associated token account. A missing account has a zero balance.
func (c *Client) GetStakingBalance(ctx context.Context, wallet ed25519.PublicKey) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetStakingBalance")
	tracer.AddAttribute("wallet", base58.Encode(wallet))
	defer tracer.End()

	balance, err := c.getWalletBalance(ctx, wallet, c.conf.stakingMint, "staking mint")
	tracer.OnError(err)
	return balance, err
}

// GetRewardBalance returns the raw reward token balance held in the wallet's
// associated token account. A missing account has a zero balance.
func (c *Client) GetRewardBalance(ctx context.Context, wallet ed25519.PublicKey) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetRewardBalance")
	tracer.AddAttribute("wallet", base58.Encode(wallet))
	defer tracer.End()

	balance, err := c.getWalletBalance(ctx, wallet, c.conf.rewardMint, "reward mint")
	tracer.OnError(err)
	return balance, err
}

func (c *Client) getWalletBalance(ctx context.Context, wallet ed25519.PublicKey, mintConfig config.String, name string) (uint64, error) {
	log := c.log.WithFields(logrus.Fields{
		"method": "getWalletBalance",
		"wallet": base58.Encode(wallet),
		"mint":   name,
	})

	mint, err := c.getAddress(ctx, mintConfig, name)
	if err != nil {
		return 0, err
	}

	commitment, err := c.getCommitment(ctx)
	if err != nil {
		return 0, err
	}

	account, address, err := token.NewClient(c.sc, mint).GetAssociatedAccount(wallet, commitment)
	switch {
	case err == nil:
	case err == token.ErrAccountNotFound:
		return 0, nil
	case errors.Is(err, token.ErrInvalidTokenAccount):
		log.WithError(err).WithField("ata", base58.Encode(address)).Warn("associated account is not a valid token account")
		return 0, err
	default:
		return 0, errors.Wrap(err, "error getting associated token account")
	}

	return account.Amount, nil
}
