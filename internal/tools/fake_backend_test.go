package tools

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"Web3-MCP/internal/events"
	"Web3-MCP/internal/web3"
	"Web3-MCP/internal/web3/ethereum"
	"Web3-MCP/pkg/logger"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var (
	testChainID  = big.NewInt(11155111)
	testGasPrice = big.NewInt(2_000_000_000)
	testNetwork  = web3.NetworkProfile{
		Name:          "testnet",
		WrappedNative: common.HexToAddress("0x00000000000000000000000000000000000000e1"),
		SwapRouter:    common.HexToAddress("0x00000000000000000000000000000000000000e2"),
		PriceFeed:     common.HexToAddress("0x00000000000000000000000000000000000000e3"),
	}
	testToken = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

// receiptMode controls how the fake chain answers receipt polls for a tx.
type receiptMode int

const (
	minedSuccess receiptMode = iota
	minedReverted
	neverMined
)

type fakeToken struct {
	decimals uint8
	balances map[common.Address]*big.Int
}

type fakeChain struct {
	mu sync.Mutex

	calls    int
	balances map[common.Address]*big.Int
	nonce    uint64
	tokens   map[common.Address]*fakeToken

	priceAnswer    *big.Int
	priceDecimals  uint8
	priceUpdatedAt time.Time

	// contracts answers eth_call for arbitrary user supplied ABIs.
	contracts map[common.Address]func(data []byte) ([]byte, error)

	receiptFor func(tx *coretypes.Transaction) receiptMode
	sendErr    error
	sent       []*coretypes.Transaction
	timeline   []string
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		balances:       map[common.Address]*big.Int{},
		tokens:         map[common.Address]*fakeToken{},
		contracts:      map[common.Address]func([]byte) ([]byte, error){},
		nonce:          7,
		priceAnswer:    big.NewInt(345678901234),
		priceDecimals:  8,
		priceUpdatedAt: time.Date(2024, 5, 1, 11, 59, 0, 0, time.UTC),
		receiptFor:     func(*coretypes.Transaction) receiptMode { return minedSuccess },
	}
}

func (f *fakeChain) touch() {
	f.calls++
}

func (f *fakeChain) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeChain) Sent() []*coretypes.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*coretypes.Transaction(nil), f.sent...)
}

func (f *fakeChain) Timeline() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.timeline...)
}

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	return new(big.Int).Set(testChainID), nil
}

func (f *fakeChain) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	if b, ok := f.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (f *fakeChain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	return f.nonce, nil
}

func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	return new(big.Int).Set(testGasPrice), nil
}

func (f *fakeChain) EstimateGas(context.Context, gethcore.CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	return 90_000, nil
}

func (f *fakeChain) CallContract(_ context.Context, msg gethcore.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errors.New("bad call")
	}
	to := *msg.To

	if handler, ok := f.contracts[to]; ok {
		return handler(msg.Data)
	}
	if to == testNetwork.PriceFeed {
		method, err := priceFeedABI.MethodById(msg.Data[:4])
		if err != nil {
			return nil, err
		}
		switch method.Name {
		case "latestRoundData":
			updated := big.NewInt(f.priceUpdatedAt.Unix())
			return method.Outputs.Pack(big.NewInt(1), f.priceAnswer, updated, updated, big.NewInt(1))
		case "decimals":
			return method.Outputs.Pack(f.priceDecimals)
		}
	}
	if token, ok := f.tokens[to]; ok {
		method, err := erc20ABI.MethodById(msg.Data[:4])
		if err != nil {
			return nil, err
		}
		switch method.Name {
		case "decimals":
			return method.Outputs.Pack(token.decimals)
		case "balanceOf":
			args, err := method.Inputs.Unpack(msg.Data[4:])
			if err != nil {
				return nil, err
			}
			owner := args[0].(common.Address)
			balance := token.balances[owner]
			if balance == nil {
				balance = new(big.Int)
			}
			return method.Outputs.Pack(balance)
		}
	}
	return nil, nil
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *coretypes.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	f.timeline = append(f.timeline, fmt.Sprintf("send:%d", tx.Nonce()))
	return nil
}

func (f *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*coretypes.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	for _, tx := range f.sent {
		if tx.Hash() != hash {
			continue
		}
		switch f.receiptFor(tx) {
		case neverMined:
			return nil, gethcore.NotFound
		case minedReverted:
			f.timeline = append(f.timeline, fmt.Sprintf("reverted:%d", tx.Nonce()))
			return &coretypes.Receipt{TxHash: hash, Status: coretypes.ReceiptStatusFailed}, nil
		default:
			f.timeline = append(f.timeline, fmt.Sprintf("confirmed:%d", tx.Nonce()))
			return &coretypes.Receipt{TxHash: hash, Status: coretypes.ReceiptStatusSuccessful}, nil
		}
	}
	return nil, gethcore.NotFound
}

func (f *fakeChain) Close() {}

type harness struct {
	chain     *fakeChain
	toolkit   *Toolkit
	events    *events.MemoryPublisher
	agent     common.Address
	dials     int
	dialMutex sync.Mutex
}

func (h *harness) Dials() int {
	h.dialMutex.Lock()
	defer h.dialMutex.Unlock()
	return h.dials
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	h := &harness{
		chain:  newFakeChain(),
		events: events.NewMemoryPublisher(64),
		agent:  crypto.PubkeyToAddress(key.PublicKey),
	}
	connector, err := ethereum.NewConnector(ethereum.Config{
		RPCURL:       "http://fake",
		PrivateKey:   common.Bytes2Hex(crypto.FromECDSA(key)),
		PollInterval: time.Millisecond,
		Logger:       logger.Nop(),
		Dial: func(context.Context, string) (ethereum.Backend, error) {
			h.dialMutex.Lock()
			h.dials++
			h.dialMutex.Unlock()
			return h.chain, nil
		},
	})
	require.NoError(t, err)

	h.toolkit, err = New(Options{
		Network:             testNetwork,
		Sessions:            connector,
		Publisher:           h.events,
		ConfirmationTimeout: 50 * time.Millisecond,
		PriceStaleness:      time.Hour,
		Clock:               func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
		Logger:              logger.Nop(),
	})
	require.NoError(t, err)
	return h
}

func (h *harness) fundAgent(wei *big.Int) {
	h.chain.mu.Lock()
	defer h.chain.mu.Unlock()
	h.chain.balances[h.agent] = wei
}

func (h *harness) addToken(addr common.Address, decimals uint8, holder common.Address, balance *big.Int) {
	h.chain.mu.Lock()
	defer h.chain.mu.Unlock()
	h.chain.tokens[addr] = &fakeToken{decimals: decimals, balances: map[common.Address]*big.Int{holder: balance}}
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func senderOf(t *testing.T, tx *coretypes.Transaction) common.Address {
	t.Helper()
	from, err := coretypes.Sender(coretypes.LatestSignerForChainID(testChainID), tx)
	require.NoError(t, err)
	return from
}

func decodeCall(t *testing.T, parsed abi.ABI, data []byte) (string, []any) {
	t.Helper()
	method, err := parsed.MethodById(data[:4])
	require.NoError(t, err)
	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	return method.Name, args
}
