package staking

import (
	"context"
	"crypto/ed25519"
	"math/big"
	"strconv"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/code-payments/staking-client/pkg/cache"
	"github.com/code-payments/staking-client/pkg/config"
	"github.com/code-payments/staking-client/pkg/metrics"
	"github.com/code-payments/staking-client/pkg/solana"
	"github.com/code-payments/staking-client/pkg/solana/cwarstaking"
)

const (
	metricsStructName = "staking.client"

	poolUsersScanMetricName = "Staking/PoolUsersScanDuration"

	// Distinct account sizes whose rent exemption is remembered
	rentCacheBudget = 16

	// Concurrent account reads when loading every user of a pool
	poolUsersFetchConcurrency = 8

	// Offset of the pool address within a user storage account, after the
	// account type and wallet.
	userPoolFieldOffset = 1 + ed25519.PublicKeySize
)

var (
	// ErrMissingConfig indicates a required address has not been configured.
	ErrMissingConfig = errors.New("required config value is missing")
)

// Client reads staking pool state and assembles unsigned transactions against
// the configured pool.
type Client struct {
	log  *logrus.Entry
	conf *conf
	sc   solana.Client

	// Used when no commitment is configured
	defaultCommitment solana.Commitment

	// Rent exemption minimums keyed by account size, nil when disabled.
	// Account data is always read fresh.
	rentExemptions cache.Cache
}

// NewClient returns a new staking client reading through sc. Reads use the
// confirmed commitment unless one is configured.
func NewClient(sc solana.Client, configProvider ConfigProvider) *Client {
	return newClient(sc, solana.CommitmentConfirmed, configProvider)
}

// NewClientForEnvironment returns a new staking client connected to the
// environment's RPC endpoint. Reads use the environment's commitment unless
// one is configured.
func NewClientForEnvironment(env solana.Environment, configProvider ConfigProvider) *Client {
	return newClient(solana.NewForEnvironment(env), env.Commitment, configProvider)
}

func newClient(sc solana.Client, commitment solana.Commitment, configProvider ConfigProvider) *Client {
	c := &Client{
		log:               logrus.StandardLogger().WithField("type", "staking/client"),
		conf:              configProvider(),
		sc:                sc,
		defaultCommitment: commitment,
	}

	if ttl := c.conf.rentCacheTTL.Get(context.Background()); ttl > 0 {
		c.rentExemptions = cache.New(rentCacheBudget, ttl)
	}

	return c
}

// GetPool returns the configured pool, or nil if its storage account doesn't
// exist.
func (c *Client) GetPool(ctx context.Context) (*cwarstaking.PoolAccount, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetPool")
	defer tracer.End()

	pool, err := c.getPool(ctx)
	tracer.OnError(err)
	return pool, err
}

// GetUser returns the wallet's user storage for the configured pool, or nil
// if the wallet has not created one.
func (c *Client) GetUser(ctx context.Context, wallet ed25519.PublicKey) (*cwarstaking.UserAccount, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetUser")
	tracer.AddAttribute("wallet", base58.Encode(wallet))
	defer tracer.End()

	user, err := c.getUser(ctx, wallet)
	tracer.OnError(err)
	return user, err
}

// GetUserStorageAddress returns the address of the wallet's user storage for
// the configured pool.
func (c *Client) GetUserStorageAddress(ctx context.Context, wallet ed25519.PublicKey) (ed25519.PublicKey, error) {
	program, pool, err := c.getProgramAndPool(ctx)
	if err != nil {
		return nil, err
	}

	address, _, err := cwarstaking.GetUserStorageAddress(&cwarstaking.GetUserStorageAddressArgs{
		Program: program,
		Wallet:  wallet,
		Pool:    pool,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving user storage address")
	}
	return address, nil
}

// GetUserPendingRewards estimates the rewards the wallet could claim at now,
// in raw reward token units. A wallet without user storage has no pending
// rewards. cwarstaking.ErrPoolNotFound is returned if the pool doesn't exist.
func (c *Client) GetUserPendingRewards(ctx context.Context, wallet ed25519.PublicKey, now time.Time) (*big.Int, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetUserPendingRewards")
	tracer.AddAttributes(map[string]interface{}{
		"wallet": base58.Encode(wallet),
		"now":    now.Unix(),
	})
	defer tracer.End()

	pending, err := func() (*big.Int, error) {
		var (
			g    errgroup.Group
			pool *cwarstaking.PoolAccount
			user *cwarstaking.UserAccount
		)

		g.Go(func() (err error) {
			pool, err = c.getPool(ctx)
			return err
		})
		g.Go(func() (err error) {
			user, err = c.getUser(ctx, wallet)
			return err
		})

		if err := g.Wait(); err != nil {
			return nil, err
		}

		if pool == nil {
			return nil, cwarstaking.ErrPoolNotFound
		}
		if user == nil {
			return new(big.Int), nil
		}

		vaultBalance, err := c.getVaultBalance(ctx, c.conf.stakingVault, "staking vault")
		if err != nil {
			return nil, err
		}

		return cwarstaking.EstimatePendingRewards(&cwarstaking.EstimatePendingRewardsArgs{
			Pool:                pool,
			User:                user,
			StakingVaultBalance: vaultBalance,
			Now:                 now,
		})
	}()
	tracer.OnError(err)
	return pending, err
}

// GetPoolUsers returns the user storage accounts that reference the
// configured pool.
func (c *Client) GetPoolUsers(ctx context.Context) ([]*cwarstaking.UserAccount, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetPoolUsers")
	defer tracer.End()

	users, err := c.getPoolUsers(ctx)
	tracer.OnError(err)
	return users, err
}

// EstimateFundPool returns the reward rate and reward duration end the pool
// would have if funded with amount raw reward units at now.
func (c *Client) EstimateFundPool(ctx context.Context, amount uint64, now time.Time) (rate uint64, end uint64, err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "EstimateFundPool")
	tracer.AddAttribute("amount", amount)
	defer tracer.End()

	pool, err := c.getPool(ctx)
	if err != nil {
		tracer.OnError(err)
		return 0, 0, err
	}

	rate, end, err = cwarstaking.EstimateFundPool(&cwarstaking.EstimateFundPoolArgs{
		Pool:   pool,
		Amount: amount,
		Now:    now,
	})
	tracer.OnError(err)
	return rate, end, err
}

// FormatStakingAmount renders a raw staking token amount in whole tokens.
func (c *Client) FormatStakingAmount(ctx context.Context, raw uint64) string {
	decimals := c.conf.stakingMintDecimals.Get(ctx)
	return cwarstaking.ToDecimal(new(big.Int).SetUint64(raw), uint8(decimals))
}

// FormatRewardAmount renders a raw reward token amount in whole tokens.
func (c *Client) FormatRewardAmount(ctx context.Context, raw *big.Int) string {
	decimals := c.conf.rewardMintDecimals.Get(ctx)
	return cwarstaking.ToDecimal(raw, uint8(decimals))
}

func (c *Client) getPool(ctx context.Context) (*cwarstaking.PoolAccount, error) {
	log := c.log.WithField("method", "getPool")

	address, err := c.getAddress(ctx, c.conf.poolStorage, "pool storage")
	if err != nil {
		return nil, err
	}
	log = log.WithField("pool", base58.Encode(address))

	info, err := c.getAccountInfo(ctx, address)
	if err == solana.ErrNoAccountInfo {
		return nil, nil
	} else if err != nil {
		log.WithError(err).Warn("failure getting pool account")
		return nil, errors.Wrap(err, "error getting pool account")
	}

	pool, err := cwarstaking.PoolAccountFromBytes(info.Data)
	if err != nil {
		log.WithError(err).Warn("failure decoding pool account")
		return nil, errors.Wrap(err, "error decoding pool account")
	}
	return pool, nil
}

func (c *Client) getUser(ctx context.Context, wallet ed25519.PublicKey) (*cwarstaking.UserAccount, error) {
	log := c.log.WithFields(logrus.Fields{
		"method": "getUser",
		"wallet": base58.Encode(wallet),
	})

	address, err := c.GetUserStorageAddress(ctx, wallet)
	if err != nil {
		return nil, err
	}
	log = log.WithField("user_storage", base58.Encode(address))

	info, err := c.getAccountInfo(ctx, address)
	if err == solana.ErrNoAccountInfo {
		return nil, nil
	} else if err != nil {
		log.WithError(err).Warn("failure getting user account")
		return nil, errors.Wrap(err, "error getting user account")
	}

	user, err := cwarstaking.UserAccountFromBytes(info.Data)
	if err != nil {
		log.WithError(err).Warn("failure decoding user account")
		return nil, errors.Wrap(err, "error decoding user account")
	}
	return user, nil
}

func (c *Client) getPoolUsers(ctx context.Context) ([]*cwarstaking.UserAccount, error) {
	log := c.log.WithField("method", "getPoolUsers")

	program, pool, err := c.getProgramAndPool(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.RecordDuration(ctx, poolUsersScanMetricName, time.Since(start))
	}()

	encoded, _, err := c.sc.GetFilteredProgramAccounts(program, userPoolFieldOffset, pool)
	if err != nil {
		log.WithError(err).Warn("failure scanning program accounts")
		return nil, errors.Wrap(err, "error scanning program accounts")
	}

	users := make([]*cwarstaking.UserAccount, len(encoded))

	var g errgroup.Group
	g.SetLimit(poolUsersFetchConcurrency)
	for i, value := range encoded {
		g.Go(func() error {
			address, err := base58.Decode(value)
			if err != nil {
				return errors.Wrapf(err, "invalid account address %s", value)
			}

			info, err := c.getAccountInfo(ctx, address)
			if err == solana.ErrNoAccountInfo {
				// Closed since the scan
				return nil
			} else if err != nil {
				return errors.Wrapf(err, "error getting user account %s", value)
			}

			// The filter can also match other account types owned by the
			// program.
			if len(info.Data) != cwarstaking.UserAccountSize {
				return nil
			}

			user, err := cwarstaking.UserAccountFromBytes(info.Data)
			if err != nil {
				log.WithError(err).WithField("user_storage", value).Warn("failure decoding user account")
				return errors.Wrapf(err, "error decoding user account %s", value)
			}
			users[i] = user
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := users[:0]
	for _, user := range users {
		if user != nil {
			res = append(res, user)
		}
	}
	return res, nil
}

func (c *Client) getAccountInfo(ctx context.Context, address ed25519.PublicKey) (solana.AccountInfo, error) {
	commitment, err := c.getCommitment(ctx)
	if err != nil {
		return solana.AccountInfo{}, err
	}
	return c.sc.GetAccountInfo(address, commitment)
}

// getRentExemption returns the minimum lamports for an account of size bytes
// to be rent exempt.
func (c *Client) getRentExemption(size uint64) (uint64, error) {
	key := strconv.FormatUint(size, 10)

	if c.rentExemptions != nil {
		if cached, ok := c.rentExemptions.Retrieve(key); ok {
			return cached.(uint64), nil
		}
	}

	lamports, err := c.sc.GetMinimumBalanceForRentExemption(size)
	if err != nil {
		return 0, err
	}

	if c.rentExemptions != nil {
		c.rentExemptions.Insert(key, lamports, 1)
	}
	return lamports, nil
}

func (c *Client) getVaultBalance(ctx context.Context, cfg config.String, name string) (uint64, error) {
	vault, err := c.getAddress(ctx, cfg, name)
	if err != nil {
		return 0, err
	}

	commitment, err := c.getCommitment(ctx)
	if err != nil {
		return 0, err
	}

	balance, _, err := c.sc.GetTokenAccountBalance(vault, commitment)
	if err != nil {
		return 0, errors.Wrapf(err, "error getting %s balance", name)
	}
	return balance, nil
}

func (c *Client) getProgramAndPool(ctx context.Context) (program, pool ed25519.PublicKey, err error) {
	program, err = c.getAddress(ctx, c.conf.programId, "program id")
	if err != nil {
		return nil, nil, err
	}

	pool, err = c.getAddress(ctx, c.conf.poolStorage, "pool storage")
	if err != nil {
		return nil, nil, err
	}

	return program, pool, nil
}

func (c *Client) getAddress(ctx context.Context, cfg config.String, name string) (ed25519.PublicKey, error) {
	value := cfg.Get(ctx)
	if len(value) == 0 {
		return nil, errors.Wrap(ErrMissingConfig, name)
	}

	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s address", name)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid %s address length: %d", name, len(decoded))
	}
	return decoded, nil
}

func (c *Client) getCommitment(ctx context.Context) (solana.Commitment, error) {
	value := c.conf.commitment.Get(ctx)
	if len(value) == 0 {
		return c.defaultCommitment, nil
	}
	return solana.ParseCommitment(value)
}
