package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/staking-client/pkg/rate"
	"github.com/code-payments/staking-client/pkg/retry"
	"github.com/code-payments/staking-client/pkg/retry/backoff"
)

const (
	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	invalidParamCode = -32602
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

// ParseCommitment maps a commitment level name to a Commitment.
func ParseCommitment(value string) (Commitment, error) {
	switch value {
	case confirmationStatusProcessed:
		return CommitmentProcessed, nil
	case confirmationStatusConfirmed:
		return CommitmentConfirmed, nil
	case confirmationStatusFinalized:
		return CommitmentFinalized, nil
	}
	return Commitment{}, errors.Errorf("unknown commitment: %s", value)
}

var (
	ErrNoAccountInfo = errors.New("no account info")
	ErrNoBalance     = errors.New("no balance")
)

// AccountInfo contains the Solana account information (not to be confused with a TokenAccount)
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

type TokenAmount struct {
	Amount   string `json:"amount"`   // example: "49801500000",
	Decimals uint64 `json:"decimals"` // example: 9,
}

// Client provides read access to the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(ed25519.PublicKey, Commitment) (AccountInfo, error)
	GetBalance(ed25519.PublicKey) (uint64, error)
	GetFilteredProgramAccounts(program ed25519.PublicKey, offset uint, filterValue []byte) ([]string, uint64, error)
	GetLatestBlockhash() (Blockhash, error)
	GetMinimumBalanceForRentExemption(size uint64) (lamports uint64, err error)
	GetTokenAccountBalance(ed25519.PublicKey, Commitment) (uint64, uint64, error)
}

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

// contextResponse is the envelope of RPC methods that report the slot their
// result was observed at.
type contextResponse[T any] struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value T `json:"value"`
}

type accountConfig struct {
	Commitment string `json:"commitment"`
	Encoding   string `json:"encoding"`
}

type client struct {
	log     *logrus.Entry
	client  jsonrpc.RPCClient
	retrier retry.Retrier
	limiter rate.Limiter

	blockhashes blockhashCache
}

// New returns a client using the specified endpoint.
func New(endpoint string) Client {
	return NewWithRPCOptions(endpoint, nil)
}

// NewWithRPCOptions returns a client configured with the specified RPC options.
func NewWithRPCOptions(endpoint string, opts *jsonrpc.RPCClientOpts) Client {
	return newClient(jsonrpc.NewClientWithOpts(endpoint, opts))
}

// NewWithRateLimit returns a client that sends at most requestsPerSecond
// requests for each RPC method. Locally limited requests are retried like
// ones the node rejected.
func NewWithRateLimit(endpoint string, requestsPerSecond float64) Client {
	c := newClient(jsonrpc.NewClient(endpoint))
	c.limiter = rate.NewLocalRateLimiter(xrate.Limit(requestsPerSecond))
	return c
}

func newClient(rpc jsonrpc.RPCClient) *client {
	c := &client{
		log:     logrus.StandardLogger().WithField("type", "solana/client"),
		client:  rpc,
		limiter: &rate.NoLimiter{},
	}
	c.retrier = retry.NewRetrier(
		retry.RetriableErrors(errRateLimited, errServiceError),
		retry.Limit(3),
		retry.Notify(func(attempts uint, err error) {
			c.log.WithError(err).WithField("attempts", attempts).Debug("retrying rpc call")
		}),
		retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
	)
	return c
}

func (c *client) call(out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(func() error {
		if !c.limiter.Allow(method) {
			c.log.WithField("method", method).Debug("locally rate limited")
			return errRateLimited
		}

		err := c.client.CallFor(out, method, params...)
		if err == nil {
			return nil
		}

		return c.handleRpcError(method, err)
	})

	return err
}

// handleRpcError classifies transient failures so the retrier can act on
// them. Other errors pass through untouched.
func (c *client) handleRpcError(method string, err error) error {
	rpcErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return err
	}

	log := c.log.WithField("method", method)
	switch {
	case rpcErr.Code == 429:
		log.Error("rate limited")
		return errRateLimited
	case rpcErr.Code >= 500, rpcErr.Code == rpcNodeUnhealthyCode:
		log.WithError(rpcErr).Warn("service error")
		return errServiceError
	}
	return err
}

// isInvalidParam reports whether the node rejected a request's parameters,
// which is how balance lookups of missing accounts fail.
func isInvalidParam(err error) bool {
	rpcErr, ok := err.(*jsonrpc.RPCError)
	return ok && rpcErr.Code == invalidParamCode
}

func (c *client) GetMinimumBalanceForRentExemption(dataSize uint64) (lamports uint64, err error) {
	if err := c.call(&lamports, "getMinimumBalanceForRentExemption", dataSize); err != nil {
		return 0, errors.Wrap(err, "getMinimumBalanceForRentExemption() failed to send request")
	}
	return lamports, nil
}

// GetLatestBlockhash returns a recent blockhash, reusing one fetched within
// the last couple of seconds.
func (c *client) GetLatestBlockhash() (Blockhash, error) {
	if hash, ok := c.blockhashes.get(); ok {
		return hash, nil
	}

	var resp contextResponse[struct {
		Blockhash string `json:"blockhash"`
	}]
	if err := c.call(&resp, "getLatestBlockhash"); err != nil {
		return Blockhash{}, errors.Wrap(err, "getLatestBlockhash() failed to send request")
	}

	decoded, err := base58.Decode(resp.Value.Blockhash)
	if err != nil {
		return Blockhash{}, errors.Wrap(err, "invalid base58 encoded hash in response")
	}
	if len(decoded) != len(Blockhash{}) {
		return Blockhash{}, errors.Errorf("invalid blockhash length: %d", len(decoded))
	}

	var hash Blockhash
	copy(hash[:], decoded)
	c.blockhashes.set(hash)

	return hash, nil
}

func (c *client) GetBalance(account ed25519.PublicKey) (uint64, error) {
	var resp contextResponse[uint64]
	if err := c.call(&resp, "getBalance", base58.Encode(account), CommitmentProcessed); err != nil {
		if isInvalidParam(err) {
			return 0, ErrNoBalance
		}
		return 0, errors.Wrap(err, "getBalance() failed to send request")
	}
	return resp.Value, nil
}

// GetTokenAccountBalance returns the raw token balance and the slot it was
// observed at. ErrNoBalance is returned when the token account does not exist.
func (c *client) GetTokenAccountBalance(account ed25519.PublicKey, commitment Commitment) (uint64, uint64, error) {
	var resp contextResponse[TokenAmount]
	if err := c.call(&resp, "getTokenAccountBalance", base58.Encode(account), commitment); err != nil {
		if isInvalidParam(err) {
			return 0, 0, ErrNoBalance
		}
		return 0, 0, errors.Wrap(err, "getTokenAccountBalance() failed to send request")
	}

	quarks, err := strconv.ParseUint(resp.Value.Amount, 10, 64)
	if err != nil {
		return 0, 0, errors.Wrap(err, "invalid token amount in response")
	}
	return quarks, resp.Context.Slot, nil
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (AccountInfo, error) {
	var resp contextResponse[*struct {
		Lamports   uint64   `json:"lamports"`
		Owner      string   `json:"owner"`
		Data       []string `json:"data"`
		Executable bool     `json:"executable"`
	}]
	cfg := accountConfig{Commitment: commitment.Commitment, Encoding: "base64"}
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account), cfg); err != nil {
		return AccountInfo{}, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	value := resp.Value
	if value == nil {
		return AccountInfo{}, ErrNoAccountInfo
	}

	owner, err := base58.Decode(value.Owner)
	if err != nil {
		return AccountInfo{}, errors.Wrap(err, "invalid base58 encoded owner")
	}

	// Data is returned as [payload, encoding]
	if len(value.Data) == 0 {
		return AccountInfo{}, errors.New("missing account data in response")
	}
	data, err := base64.StdEncoding.DecodeString(value.Data[0])
	if err != nil {
		return AccountInfo{}, errors.Wrap(err, "invalid base64 encoded data")
	}

	return AccountInfo{
		Data:       data,
		Owner:      owner,
		Lamports:   value.Lamports,
		Executable: value.Executable,
	}, nil
}

// GetFilteredProgramAccounts returns the addresses of program owned accounts
// whose data matches filterValue at offset, along with the slot observed.
// Results are read at finalized commitment.
func (c *client) GetFilteredProgramAccounts(program ed25519.PublicKey, offset uint, filterValue []byte) ([]string, uint64, error) {
	type memcmp struct {
		Offset uint   `json:"offset"`
		Bytes  string `json:"bytes"`
	}
	type filter struct {
		Memcmp memcmp `json:"memcmp"`
	}

	cfg := struct {
		accountConfig
		Filters     []filter `json:"filters"`
		WithContext bool     `json:"withContext"`
	}{
		accountConfig: accountConfig{Commitment: confirmationStatusFinalized, Encoding: "base64"},
		Filters:       []filter{{Memcmp: memcmp{Offset: offset, Bytes: base58.Encode(filterValue)}}},
		WithContext:   true,
	}

	var resp contextResponse[[]struct {
		PubKey string `json:"pubkey"`
	}]
	if err := c.call(&resp, "getProgramAccounts", base58.Encode(program), cfg); err != nil {
		return nil, 0, errors.Wrap(err, "getProgramAccounts() failed to send request")
	}

	addresses := make([]string, 0, len(resp.Value))
	for _, account := range resp.Value {
		addresses = append(addresses, account.PubKey)
	}
	return addresses, resp.Context.Slot, nil
}

// blockhashCache holds the last fetched blockhash. Its freshness window is
// randomized per lookup so concurrent callers don't refresh in lockstep.
type blockhashCache struct {
	mu        sync.RWMutex
	hash      Blockhash
	fetchedAt time.Time
}

const blockhashMaxAge = 2 * time.Second

func (b *blockhashCache) get() (Blockhash, bool) {
	window := time.Duration(float64(blockhashMaxAge) * (0.8 + rand.Float64()))

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.fetchedAt.IsZero() || time.Since(b.fetchedAt) >= window {
		return Blockhash{}, false
	}
	return b.hash, true
}

func (b *blockhashCache) set(hash Blockhash) {
	b.mu.Lock()
	b.hash = hash
	b.fetchedAt = time.Now()
	b.mu.Unlock()
}
