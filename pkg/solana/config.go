package solana

import (
	"strings"

	"github.com/pkg/errors"
)

// Environment is a Solana cluster along with the commitment reads against it
// default to.
type Environment struct {
	Name       string
	Endpoint   string
	Commitment Commitment
}

var (
	EnvironmentDev = Environment{
		Name:       "devnet",
		Endpoint:   "https://api.devnet.solana.com",
		Commitment: CommitmentProcessed,
	}
	EnvironmentTest = Environment{
		Name:       "testnet",
		Endpoint:   "https://api.testnet.solana.com",
		Commitment: CommitmentProcessed,
	}
	EnvironmentProd = Environment{
		Name:       "mainnet",
		Endpoint:   "https://api.mainnet-beta.solana.com",
		Commitment: CommitmentProcessed,
	}
	EnvironmentLocal = Environment{
		Name:       "localnet",
		Endpoint:   "http://127.0.0.1:8899",
		Commitment: CommitmentProcessed,
	}
)

// ParseEnvironment returns the preset environment with the given name.
func ParseEnvironment(name string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dev", "devnet":
		return EnvironmentDev, nil
	case "test", "testnet":
		return EnvironmentTest, nil
	case "prod", "mainnet", "mainnet-beta":
		return EnvironmentProd, nil
	case "local", "localnet":
		return EnvironmentLocal, nil
	}
	return Environment{}, errors.Errorf("unknown environment: %s", name)
}

// WithEndpoint returns a copy of the environment using a different RPC
// endpoint, such as a dedicated provider for the same cluster.
func (e Environment) WithEndpoint(endpoint string) Environment {
	e.Endpoint = endpoint
	return e
}

// NewForEnvironment returns a client connected to the environment's endpoint.
func NewForEnvironment(env Environment) Client {
	return New(env.Endpoint)
}
