package staking

import (
	"time"

	"github.com/spf13/viper"

	"github.com/code-payments/staking-client/pkg/config"
	"github.com/code-payments/staking-client/pkg/config/env"
	"github.com/code-payments/staking-client/pkg/config/file"
	"github.com/code-payments/staking-client/pkg/config/memory"
	"github.com/code-payments/staking-client/pkg/config/wrapper"
	"github.com/code-payments/staking-client/pkg/solana/cwarstaking"
)

const (
	envConfigPrefix = "STAKING_CLIENT_"

	ProgramIdConfigEnvName = envConfigPrefix + "PROGRAM_ID"
	defaultProgramId       = ""

	PoolStorageConfigEnvName = envConfigPrefix + "POOL_STORAGE_PUBKEY"
	defaultPoolStorage       = ""

	StakingMintConfigEnvName = envConfigPrefix + "STAKING_MINT_PUBKEY"
	defaultStakingMint       = ""

	RewardMintConfigEnvName = envConfigPrefix + "REWARD_MINT_PUBKEY"
	defaultRewardMint       = ""

	StakingVaultConfigEnvName = envConfigPrefix + "STAKING_VAULT_PUBKEY"
	defaultStakingVault       = ""

	RewardVaultConfigEnvName = envConfigPrefix + "REWARD_VAULT_PUBKEY"
	defaultRewardVault       = ""

	// Empty defers to the commitment the client was created with
	CommitmentConfigEnvName = envConfigPrefix + "COMMITMENT"
	defaultCommitment       = ""

	StakingMintDecimalsConfigEnvName = envConfigPrefix + "STAKING_MINT_DECIMALS"
	defaultStakingMintDecimals       = cwarstaking.DefaultStakingMintDecimals

	RewardMintDecimalsConfigEnvName = envConfigPrefix + "REWARD_MINT_DECIMALS"
	defaultRewardMintDecimals       = cwarstaking.DefaultRewardMintDecimals

	RentCacheTTLConfigEnvName = envConfigPrefix + "RENT_CACHE_TTL"
	defaultRentCacheTTL       = 10 * time.Minute

	ComputeUnitPriceConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_PRICE"
	defaultComputeUnitPrice       = 0

	ComputeUnitLimitConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_LIMIT"
	defaultComputeUnitLimit       = 0
)

// Keys read from a config file, relative to the "staking" section.
const (
	viperConfigSection = "staking."

	ProgramIdConfigKey           = viperConfigSection + "program_id"
	PoolStorageConfigKey         = viperConfigSection + "pool_storage_pubkey"
	StakingMintConfigKey         = viperConfigSection + "staking_mint_pubkey"
	RewardMintConfigKey          = viperConfigSection + "reward_mint_pubkey"
	StakingVaultConfigKey        = viperConfigSection + "staking_vault_pubkey"
	RewardVaultConfigKey         = viperConfigSection + "reward_vault_pubkey"
	CommitmentConfigKey          = viperConfigSection + "commitment"
	StakingMintDecimalsConfigKey = viperConfigSection + "staking_mint_decimals"
	RewardMintDecimalsConfigKey  = viperConfigSection + "reward_mint_decimals"
	RentCacheTTLConfigKey        = viperConfigSection + "rent_cache_ttl"
	ComputeUnitPriceConfigKey    = viperConfigSection + "compute_unit_price"
	ComputeUnitLimitConfigKey    = viperConfigSection + "compute_unit_limit"
)

type conf struct {
	programId           config.String
	poolStorage         config.String
	stakingMint         config.String
	rewardMint          config.String
	stakingVault        config.String
	rewardVault         config.String
	commitment          config.String
	stakingMintDecimals config.Uint64
	rewardMintDecimals  config.Uint64
	rentCacheTTL        config.Duration
	computeUnitPrice    config.Uint64
	computeUnitLimit    config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			programId:           env.NewStringConfig(ProgramIdConfigEnvName, defaultProgramId),
			poolStorage:         env.NewStringConfig(PoolStorageConfigEnvName, defaultPoolStorage),
			stakingMint:         env.NewStringConfig(StakingMintConfigEnvName, defaultStakingMint),
			rewardMint:          env.NewStringConfig(RewardMintConfigEnvName, defaultRewardMint),
			stakingVault:        env.NewStringConfig(StakingVaultConfigEnvName, defaultStakingVault),
			rewardVault:         env.NewStringConfig(RewardVaultConfigEnvName, defaultRewardVault),
			commitment:          env.NewStringConfig(CommitmentConfigEnvName, defaultCommitment),
			stakingMintDecimals: env.NewUint64Config(StakingMintDecimalsConfigEnvName, defaultStakingMintDecimals),
			rewardMintDecimals:  env.NewUint64Config(RewardMintDecimalsConfigEnvName, defaultRewardMintDecimals),
			rentCacheTTL:        env.NewDurationConfig(RentCacheTTLConfigEnvName, defaultRentCacheTTL),
			computeUnitPrice:    env.NewUint64Config(ComputeUnitPriceConfigEnvName, defaultComputeUnitPrice),
			computeUnitLimit:    env.NewUint64Config(ComputeUnitLimitConfigEnvName, defaultComputeUnitLimit),
		}
	}
}

// WithViperConfigs returns configuration pulled from the "staking" section
// of a config file loaded into v
func WithViperConfigs(v *viper.Viper) ConfigProvider {
	return func() *conf {
		return &conf{
			programId:           file.NewStringConfig(v, ProgramIdConfigKey, defaultProgramId),
			poolStorage:         file.NewStringConfig(v, PoolStorageConfigKey, defaultPoolStorage),
			stakingMint:         file.NewStringConfig(v, StakingMintConfigKey, defaultStakingMint),
			rewardMint:          file.NewStringConfig(v, RewardMintConfigKey, defaultRewardMint),
			stakingVault:        file.NewStringConfig(v, StakingVaultConfigKey, defaultStakingVault),
			rewardVault:         file.NewStringConfig(v, RewardVaultConfigKey, defaultRewardVault),
			commitment:          file.NewStringConfig(v, CommitmentConfigKey, defaultCommitment),
			stakingMintDecimals: file.NewUint64Config(v, StakingMintDecimalsConfigKey, defaultStakingMintDecimals),
			rewardMintDecimals:  file.NewUint64Config(v, RewardMintDecimalsConfigKey, defaultRewardMintDecimals),
			rentCacheTTL:        file.NewDurationConfig(v, RentCacheTTLConfigKey, defaultRentCacheTTL),
			computeUnitPrice:    file.NewUint64Config(v, ComputeUnitPriceConfigKey, defaultComputeUnitPrice),
			computeUnitLimit:    file.NewUint64Config(v, ComputeUnitLimitConfigKey, defaultComputeUnitLimit),
		}
	}
}

type testOverrides struct {
	programId    string
	poolStorage  string
	stakingMint  string
	rewardMint   string
	stakingVault string
	rewardVault  string
	commitment   string

	rentCacheTTL     time.Duration
	computeUnitPrice uint64
	computeUnitLimit uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			programId:           wrapper.NewStringConfig(memory.NewConfig(overrides.programId), defaultProgramId),
			poolStorage:         wrapper.NewStringConfig(memory.NewConfig(overrides.poolStorage), defaultPoolStorage),
			stakingMint:         wrapper.NewStringConfig(memory.NewConfig(overrides.stakingMint), defaultStakingMint),
			rewardMint:          wrapper.NewStringConfig(memory.NewConfig(overrides.rewardMint), defaultRewardMint),
			stakingVault:        wrapper.NewStringConfig(memory.NewConfig(overrides.stakingVault), defaultStakingVault),
			rewardVault:         wrapper.NewStringConfig(memory.NewConfig(overrides.rewardVault), defaultRewardVault),
			commitment:          wrapper.NewStringConfig(memory.NewConfig(overrides.commitment), defaultCommitment),
			stakingMintDecimals: wrapper.NewUint64Config(memory.NewConfig(uint64(defaultStakingMintDecimals)), defaultStakingMintDecimals),
			rewardMintDecimals:  wrapper.NewUint64Config(memory.NewConfig(uint64(defaultRewardMintDecimals)), defaultRewardMintDecimals),
			rentCacheTTL:        wrapper.NewDurationConfig(memory.NewConfig(overrides.rentCacheTTL), defaultRentCacheTTL),
			computeUnitPrice:    wrapper.NewUint64Config(memory.NewConfig(overrides.computeUnitPrice), defaultComputeUnitPrice),
			computeUnitLimit:    wrapper.NewUint64Config(memory.NewConfig(overrides.computeUnitLimit), defaultComputeUnitLimit),
		}
	}
}
