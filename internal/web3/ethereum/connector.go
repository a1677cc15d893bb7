package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	xerrors "Web3-MCP/internal/errors"
	"Web3-MCP/pkg/logger"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Backend is the subset of the go-ethereum client the tools depend on.
// *ethclient.Client satisfies it; tests substitute an in-process fake.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg gethcore.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg gethcore.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *coretypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*coretypes.Receipt, error)
	Close()
}

// DialFunc opens a Backend for the given endpoint.
type DialFunc func(ctx context.Context, rpcURL string) (Backend, error)

// DialRPC is the production DialFunc backed by go-ethereum's RPC client.
func DialRPC(ctx context.Context, rpcURL string) (Backend, error) {
	rpcClient, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return ethclient.NewClient(rpcClient), nil
}

// Config describes how to reach the chain and which key signs transactions.
type Config struct {
	RPCURL       string
	PrivateKey   string
	PollInterval time.Duration
	Dial         DialFunc
	Logger       *slog.Logger
}

// Connector lazily establishes exactly one Session per process. A failed
// attempt is not remembered; the next caller tries again.
type Connector struct {
	cfg     Config
	log     *slog.Logger
	mu      sync.Mutex
	session *Session
}

// NewConnector validates the static configuration without touching the network.
func NewConnector(cfg Config) (*Connector, error) {
	cfg.RPCURL = strings.TrimSpace(cfg.RPCURL)
	if cfg.RPCURL == "" {
		return nil, errors.New("未配置以太坊 RPC 地址")
	}
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, errors.New("未配置代理私钥")
	}
	if cfg.Dial == nil {
		cfg.Dial = DialRPC
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Named("ethereum")
	}
	return &Connector{cfg: cfg, log: log}, nil
}

// Session returns the shared session, initializing it on first use.
func (c *Connector) Session(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}

	backend, err := c.cfg.Dial(ctx, c.cfg.RPCURL)
	if err != nil {
		c.log.Error("web3 initialization failed", slog.String("stage", "dial"), slog.Any("error", err))
		return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "连接以太坊节点失败")
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		c.log.Error("web3 initialization failed", slog.String("stage", "liveness"), slog.Any("error", err))
		return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "Failed to connect to Web3 provider")
	}
	c.log.Info("connected to network", slog.String("chain_id", chainID.String()))

	identity, err := NewIdentity(c.cfg.PrivateKey)
	if err != nil {
		backend.Close()
		c.log.Error("web3 initialization failed", slog.String("stage", "identity"), slog.Any("error", err))
		return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "派生代理身份失败")
	}
	c.log.Info("agent identity loaded", slog.String("address", identity.Address().Hex()))

	c.session = &Session{
		backend:      backend,
		chainID:      chainID,
		identity:     identity,
		pollInterval: c.cfg.PollInterval,
		log:          c.log,
	}
	return c.session, nil
}

// Ready reports whether a session has been established.
func (c *Connector) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Close releases the network connection held by the session, if any.
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil && c.session.backend != nil {
		c.session.backend.Close()
	}
	c.session = nil
}

// Identity is the agent's signing key and address. The key never leaves
// this type.
type Identity struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var errInvalidKey = errors.New("私钥格式非法")

// NewIdentity derives an identity from a hex encoded secp256k1 key with an
// optional 0x prefix.
func NewIdentity(hexKey string) (*Identity, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		// 底层错误可能包含密钥片段，这里只返回固定描述。
		return nil, errInvalidKey
	}
	return &Identity{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address returns the public address of the identity.
func (i *Identity) Address() common.Address {
	return i.address
}

// String implements fmt.Stringer without exposing the key.
func (i *Identity) String() string {
	return i.address.Hex()
}

// LogValue keeps the key out of structured logs.
func (i *Identity) LogValue() slog.Value {
	return slog.StringValue(i.address.Hex())
}

func (i *Identity) sign(tx *coretypes.Transaction, chainID *big.Int) (*coretypes.Transaction, error) {
	signed, err := coretypes.SignTx(tx, coretypes.LatestSignerForChainID(chainID), i.key)
	if err != nil {
		return nil, fmt.Errorf("签名交易失败: %w", err)
	}
	return signed, nil
}
