package staking

import (
	"context"
	"crypto/ed25519"
	"math"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/staking-client/pkg/metrics"
	"github.com/code-payments/staking-client/pkg/solana"
	"github.com/code-payments/staking-client/pkg/solana/computebudget"
	"github.com/code-payments/staking-client/pkg/solana/cwarstaking"
	"github.com/code-payments/staking-client/pkg/solana/system"
	"github.com/code-payments/staking-client/pkg/solana/token"
)

const transactionsBuiltMetricName = "Staking/TransactionsBuilt"

var (
	// ErrInsufficientBalance indicates the fee payer cannot cover the rent of
	// the accounts a transaction creates.
	ErrInsufficientBalance = errors.New("insufficient balance to cover rent")
)

// MakeCreateUserTransaction returns an unsigned transaction creating the
// wallet's user storage for the configured pool.
func (c *Client) MakeCreateUserTransaction(ctx context.Context, payer, wallet ed25519.PublicKey) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "MakeCreateUserTransaction")
	defer tracer.End()

	txn, err := func() (*solana.Transaction, error) {
		program, pool, err := c.getProgramAndPool(ctx)
		if err != nil {
			return nil, err
		}

		userStorage, nonce, err := cwarstaking.GetUserStorageAddress(&cwarstaking.GetUserStorageAddressArgs{
			Program: program,
			Wallet:  wallet,
			Pool:    pool,
		})
		if err != nil {
			return nil, errors.Wrap(err, "error deriving user storage address")
		}

		return c.newTransaction(ctx, payer, cwarstaking.NewCreateUserInstruction(
			program,
			&cwarstaking.CreateUserInstructionAccounts{
				Wallet:      wallet,
				UserStorage: userStorage,
				Pool:        pool,
			},
			&cwarstaking.CreateUserInstructionArgs{
				Nonce: nonce,
			},
		))
	}()
	tracer.OnError(err)
	return txn, err
}

// MakeStakeTransaction returns an unsigned transaction moving amount raw
// staking units from the wallet's associated token account into the pool.
func (c *Client) MakeStakeTransaction(ctx context.Context, payer, wallet ed25519.PublicKey, amount uint64) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "MakeStakeTransaction")
	tracer.AddAttribute("amount", amount)
	defer tracer.End()

	txn, err := func() (*solana.Transaction, error) {
		if amount == 0 {
			return nil, cwarstaking.ErrInvalidAmount
		}

		addresses, err := c.getUserAddresses(ctx, wallet)
		if err != nil {
			return nil, err
		}

		return c.newTransaction(ctx, payer, cwarstaking.NewStakeInstruction(
			addresses.program,
			&cwarstaking.StakeInstructionAccounts{
				Wallet:         wallet,
				UserStorage:    addresses.userStorage,
				Pool:           addresses.pool,
				StakingVault:   addresses.stakingVault,
				UserStakingAta: addresses.stakingAta,
			},
			&cwarstaking.StakeInstructionArgs{
				Amount: amount,
			},
		))
	}()
	tracer.OnError(err)
	return txn, err
}

// MakeUnstakeTransaction returns an unsigned transaction returning amount raw
// staking units from the pool to the wallet's associated token account.
func (c *Client) MakeUnstakeTransaction(ctx context.Context, payer, wallet ed25519.PublicKey, amount uint64) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "MakeUnstakeTransaction")
	tracer.AddAttribute("amount", amount)
	defer tracer.End()

	txn, err := func() (*solana.Transaction, error) {
		if amount == 0 {
			return nil, cwarstaking.ErrInvalidAmount
		}

		addresses, err := c.getUserAddresses(ctx, wallet)
		if err != nil {
			return nil, err
		}

		return c.newTransaction(ctx, payer, cwarstaking.NewUnstakeInstruction(
			addresses.program,
			&cwarstaking.UnstakeInstructionAccounts{
				Wallet:         wallet,
				UserStorage:    addresses.userStorage,
				Pool:           addresses.pool,
				StakingVault:   addresses.stakingVault,
				UserStakingAta: addresses.stakingAta,
				PoolSigner:     addresses.poolSigner,
			},
			&cwarstaking.UnstakeInstructionArgs{
				Amount: amount,
			},
		))
	}()
	tracer.OnError(err)
	return txn, err
}

// MakeClaimRewardsTransaction returns an unsigned transaction paying the
// wallet's pending rewards into its reward associated token account, which is
// created first when missing.
func (c *Client) MakeClaimRewardsTransaction(ctx context.Context, payer, wallet ed25519.PublicKey) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "MakeClaimRewardsTransaction")
	defer tracer.End()

	txn, err := func() (*solana.Transaction, error) {
		addresses, err := c.getUserAddresses(ctx, wallet)
		if err != nil {
			return nil, err
		}

		rewardMint, err := c.getAddress(ctx, c.conf.rewardMint, "reward mint")
		if err != nil {
			return nil, err
		}

		var ixns []solana.Instruction

		createAta, rewardAta, err := c.createAssociatedAccountIfMissing(ctx, payer, wallet, rewardMint)
		if err != nil {
			return nil, err
		}
		if createAta != nil {
			ixns = append(ixns, *createAta)
		}

		ixns = append(ixns, cwarstaking.NewClaimRewardsInstruction(
			addresses.program,
			&cwarstaking.ClaimRewardsInstructionAccounts{
				Wallet:        wallet,
				UserStorage:   addresses.userStorage,
				Pool:          addresses.pool,
				StakingVault:  addresses.stakingVault,
				RewardVault:   addresses.rewardVault,
				UserRewardAta: rewardAta,
				PoolSigner:    addresses.poolSigner,
			},
		))

		return c.newTransaction(ctx, payer, ixns...)
	}()
	tracer.OnError(err)
	return txn, err
}

// MakeFundPoolTransaction returns an unsigned transaction moving amount raw
// reward units from the funder's associated token account into the reward
// vault and starting a new reward period.
func (c *Client) MakeFundPoolTransaction(ctx context.Context, payer, funder ed25519.PublicKey, amount uint64) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "MakeFundPoolTransaction")
	tracer.AddAttribute("amount", amount)
	defer tracer.End()

	txn, err := func() (*solana.Transaction, error) {
		if amount == 0 {
			return nil, cwarstaking.ErrInvalidAmount
		}

		addresses, err := c.getPoolAddresses(ctx)
		if err != nil {
			return nil, err
		}

		rewardMint, err := c.getAddress(ctx, c.conf.rewardMint, "reward mint")
		if err != nil {
			return nil, err
		}

		funderAta, err := token.GetAssociatedAccount(funder, rewardMint)
		if err != nil {
			return nil, errors.Wrap(err, "error deriving funder reward account")
		}

		return c.newTransaction(ctx, payer, cwarstaking.NewFundPoolInstruction(
			addresses.program,
			&cwarstaking.FundPoolInstructionAccounts{
				Funder:          funder,
				Pool:            addresses.pool,
				StakingVault:    addresses.stakingVault,
				RewardVault:     addresses.rewardVault,
				FunderRewardAta: funderAta,
			},
			&cwarstaking.FundPoolInstructionArgs{
				Amount: amount,
			},
		))
	}()
	tracer.OnError(err)
	return txn, err
}

// MakeCloseUserTransaction returns an unsigned transaction closing the
// wallet's user storage. The program requires a zero staked balance.
func (c *Client) MakeCloseUserTransaction(ctx context.Context, payer, wallet ed25519.PublicKey) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "MakeCloseUserTransaction")
	defer tracer.End()

	txn, err := func() (*solana.Transaction, error) {
		program, pool, err := c.getProgramAndPool(ctx)
		if err != nil {
			return nil, err
		}

		userStorage, err := c.GetUserStorageAddress(ctx, wallet)
		if err != nil {
			return nil, err
		}

		return c.newTransaction(ctx, payer, cwarstaking.NewCloseUserInstruction(
			program,
			&cwarstaking.CloseUserInstructionAccounts{
				Wallet:      wallet,
				UserStorage: userStorage,
				Pool:        pool,
			},
		))
	}()
	tracer.OnError(err)
	return txn, err
}

// MakeClosePoolTransaction returns an unsigned transaction closing the pool
// and refunding both vaults to the owner's associated token accounts, which
// are created first when missing.
func (c *Client) MakeClosePoolTransaction(ctx context.Context, payer, owner ed25519.PublicKey) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "MakeClosePoolTransaction")
	defer tracer.End()

	txn, err := func() (*solana.Transaction, error) {
		addresses, err := c.getPoolAddresses(ctx)
		if err != nil {
			return nil, err
		}

		rewardMint, err := c.getAddress(ctx, c.conf.rewardMint, "reward mint")
		if err != nil {
			return nil, err
		}

		stakingMint, err := c.getAddress(ctx, c.conf.stakingMint, "staking mint")
		if err != nil {
			return nil, err
		}

		var ixns []solana.Instruction

		createRewardAta, rewardRefundAta, err := c.createAssociatedAccountIfMissing(ctx, payer, owner, rewardMint)
		if err != nil {
			return nil, err
		}
		if createRewardAta != nil {
			ixns = append(ixns, *createRewardAta)
		}

		createStakingAta, stakingRefundAta, err := c.createAssociatedAccountIfMissing(ctx, payer, owner, stakingMint)
		if err != nil {
			return nil, err
		}
		if createStakingAta != nil {
			ixns = append(ixns, *createStakingAta)
		}

		ixns = append(ixns, cwarstaking.NewClosePoolInstruction(
			addresses.program,
			&cwarstaking.ClosePoolInstructionAccounts{
				Owner:            owner,
				StakingVault:     addresses.stakingVault,
				StakingRefundAta: stakingRefundAta,
				RewardVault:      addresses.rewardVault,
				RewardRefundAta:  rewardRefundAta,
				Pool:             addresses.pool,
				PoolSigner:       addresses.poolSigner,
			},
		))

		return c.newTransaction(ctx, payer, ixns...)
	}()
	tracer.OnError(err)
	return txn, err
}

// InitializePoolArgs describes a new pool. The pool storage and vault
// accounts are fresh keypairs that must also sign the transaction.
type InitializePoolArgs struct {
	Payer        ed25519.PublicKey
	Owner        ed25519.PublicKey
	PoolStorage  ed25519.PublicKey
	StakingVault ed25519.PublicKey
	RewardVault  ed25519.PublicKey

	// Funder supplies the initial rewards from its reward associated token
	// account. Defaults to Owner.
	Funder ed25519.PublicKey

	// RewardDuration is in seconds.
	RewardDuration uint64
	FundAmount     uint64
}

// MakeInitializePoolTransaction returns an unsigned transaction creating both
// vault token accounts and the pool storage account, then initializing the
// pool. The configured mints are used. The pool storage, staking vault and
// reward vault accounts come from args since they don't exist yet.
func (c *Client) MakeInitializePoolTransaction(ctx context.Context, args *InitializePoolArgs) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "MakeInitializePoolTransaction")
	tracer.AddAttributes(map[string]interface{}{
		"pool":            base58.Encode(args.PoolStorage),
		"reward_duration": args.RewardDuration,
		"fund_amount":     args.FundAmount,
	})
	defer tracer.End()

	txn, err := c.makeInitializePoolTransaction(ctx, args)
	tracer.OnError(err)
	return txn, err
}

func (c *Client) makeInitializePoolTransaction(ctx context.Context, args *InitializePoolArgs) (*solana.Transaction, error) {
	log := c.log.WithField("method", "makeInitializePoolTransaction")

	if args.RewardDuration < cwarstaking.MinRewardDuration {
		return nil, cwarstaking.ErrDurationTooShort
	}

	funder := args.Funder
	if len(funder) == 0 {
		funder = args.Owner
	}

	program, err := c.getAddress(ctx, c.conf.programId, "program id")
	if err != nil {
		return nil, err
	}
	stakingMint, err := c.getAddress(ctx, c.conf.stakingMint, "staking mint")
	if err != nil {
		return nil, err
	}
	rewardMint, err := c.getAddress(ctx, c.conf.rewardMint, "reward mint")
	if err != nil {
		return nil, err
	}

	_, poolNonce, err := cwarstaking.GetPoolSignerAddress(&cwarstaking.GetPoolSignerAddressArgs{
		Program: program,
		Pool:    args.PoolStorage,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving pool signer address")
	}

	funderAta, err := token.GetAssociatedAccount(funder, rewardMint)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving funder reward account")
	}

	vaultRent, err := c.getRentExemption(token.AccountSize)
	if err != nil {
		return nil, errors.Wrap(err, "error getting vault rent")
	}
	poolRent, err := c.getRentExemption(cwarstaking.PoolAccountSize)
	if err != nil {
		return nil, errors.Wrap(err, "error getting pool storage rent")
	}

	balance, err := c.sc.GetBalance(args.Payer)
	if err != nil && err != solana.ErrNoBalance {
		return nil, errors.Wrap(err, "error getting payer balance")
	}
	if required := 2*vaultRent + poolRent; balance < required {
		log.WithFields(logrus.Fields{
			"payer":    base58.Encode(args.Payer),
			"balance":  balance,
			"required": required,
		}).Info("payer cannot cover pool rent")
		return nil, ErrInsufficientBalance
	}

	return c.newTransaction(
		ctx,
		args.Payer,
		system.CreateAccount(args.Payer, args.StakingVault, token.ProgramKey, vaultRent, token.AccountSize),
		token.InitializeAccount(args.StakingVault, stakingMint, args.Owner),
		system.CreateAccount(args.Payer, args.RewardVault, token.ProgramKey, vaultRent, token.AccountSize),
		token.InitializeAccount(args.RewardVault, rewardMint, args.Owner),
		system.CreateAccount(args.Payer, args.PoolStorage, program, poolRent, cwarstaking.PoolAccountSize),
		cwarstaking.NewInitializePoolInstruction(
			program,
			&cwarstaking.InitializePoolInstructionAccounts{
				Owner:           args.Owner,
				PoolStorage:     args.PoolStorage,
				StakingMint:     stakingMint,
				StakingVault:    args.StakingVault,
				RewardMint:      rewardMint,
				RewardVault:     args.RewardVault,
				Funder:          funder,
				FunderRewardAta: funderAta,
			},
			&cwarstaking.InitializePoolInstructionArgs{
				RewardDuration: args.RewardDuration,
				PoolNonce:      poolNonce,
				FundAmount:     args.FundAmount,
			},
		),
	)
}

type poolAddresses struct {
	program      ed25519.PublicKey
	pool         ed25519.PublicKey
	poolSigner   ed25519.PublicKey
	stakingVault ed25519.PublicKey
	rewardVault  ed25519.PublicKey
}

type userAddresses struct {
	poolAddresses

	userStorage ed25519.PublicKey
	stakingAta  ed25519.PublicKey
}

func (c *Client) getPoolAddresses(ctx context.Context) (*poolAddresses, error) {
	program, pool, err := c.getProgramAndPool(ctx)
	if err != nil {
		return nil, err
	}

	stakingVault, err := c.getAddress(ctx, c.conf.stakingVault, "staking vault")
	if err != nil {
		return nil, err
	}

	rewardVault, err := c.getAddress(ctx, c.conf.rewardVault, "reward vault")
	if err != nil {
		return nil, err
	}

	poolSigner, _, err := cwarstaking.GetPoolSignerAddress(&cwarstaking.GetPoolSignerAddressArgs{
		Program: program,
		Pool:    pool,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving pool signer address")
	}

	return &poolAddresses{
		program:      program,
		pool:         pool,
		poolSigner:   poolSigner,
		stakingVault: stakingVault,
		rewardVault:  rewardVault,
	}, nil
}

func (c *Client) getUserAddresses(ctx context.Context, wallet ed25519.PublicKey) (*userAddresses, error) {
	pool, err := c.getPoolAddresses(ctx)
	if err != nil {
		return nil, err
	}

	stakingMint, err := c.getAddress(ctx, c.conf.stakingMint, "staking mint")
	if err != nil {
		return nil, err
	}

	userStorage, _, err := cwarstaking.GetUserStorageAddress(&cwarstaking.GetUserStorageAddressArgs{
		Program: pool.program,
		Wallet:  wallet,
		Pool:    pool.pool,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving user storage address")
	}

	stakingAta, err := token.GetAssociatedAccount(wallet, stakingMint)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving staking token account")
	}

	return &userAddresses{
		poolAddresses: *pool,
		userStorage:   userStorage,
		stakingAta:    stakingAta,
	}, nil
}

// createAssociatedAccountIfMissing returns the wallet's associated token
// account for mint, along with an instruction creating it when it doesn't
// exist yet.
func (c *Client) createAssociatedAccountIfMissing(ctx context.Context, payer, wallet, mint ed25519.PublicKey) (*solana.Instruction, ed25519.PublicKey, error) {
	ixn, address, err := token.CreateAssociatedTokenAccount(payer, wallet, mint)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error deriving associated token account")
	}

	commitment, err := c.getCommitment(ctx)
	if err != nil {
		return nil, nil, err
	}

	_, err = c.sc.GetAccountInfo(address, commitment)
	switch err {
	case nil:
		return nil, address, nil
	case solana.ErrNoAccountInfo:
		return &ixn, address, nil
	default:
		return nil, nil, errors.Wrap(err, "error getting associated token account")
	}
}

func (c *Client) newTransaction(ctx context.Context, payer ed25519.PublicKey, ixns ...solana.Instruction) (*solana.Transaction, error) {
	bh, err := c.sc.GetLatestBlockhash()
	if err != nil {
		return nil, errors.Wrap(err, "error getting latest blockhash")
	}

	// Compute budget instructions go first so they apply to the whole
	// transaction.
	var budget []solana.Instruction
	if limit := c.conf.computeUnitLimit.Get(ctx); limit > 0 {
		if limit > math.MaxUint32 {
			return nil, errors.Errorf("compute unit limit out of range: %d", limit)
		}
		budget = append(budget, computebudget.SetComputeUnitLimit(uint32(limit)))
	}
	if price := c.conf.computeUnitPrice.Get(ctx); price > 0 {
		budget = append(budget, computebudget.SetComputeUnitPrice(price))
	}

	txn := solana.NewTransaction(payer, append(budget, ixns...)...)
	txn.SetBlockhash(bh)
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	metrics.RecordCount(ctx, transactionsBuiltMetricName, 1)
	return &txn, nil
}
