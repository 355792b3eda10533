// Package gateway provides thin typed wrappers around the four on-chain
// contracts: ERC20 tokens, the AMM swap/liquidity router, the lending
// pool, and the faucet. It owns the contract addresses and the ABI
// surface; it carries no business logic.
package gateway

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"flowonarc/internal/chain"
	"flowonarc/internal/model"
)

// Config holds the deployed contract addresses and the stable reference
// asset every pool is paired against.
type Config struct {
	Router      common.Address
	LendingPool common.Address
	Faucet      common.Address
	Stable      model.Token
}

// DefaultConfig is the Arc testnet deployment.
func DefaultConfig() Config {
	return Config{
		Router:      common.HexToAddress("0x49f9636FE15883e16d5E356A4eA08C9Fe6BC219B"),
		LendingPool: common.HexToAddress("0x626556a164918231bc9F73Dac17a5BC07d3865Cf"),
		Faucet:      common.HexToAddress("0xEd2520116C9e6F2517daa20Eb7FFF4EeA5bE6847"),
		Stable:      model.USDC,
	}
}

// Gateway is the single source of truth for blockchain I/O.
type Gateway struct {
	cfg    Config
	client *chain.Client
	signer chain.TxSigner
	logger *zap.Logger
}

// New builds a Gateway. The signer may be nil for read-only use.
func New(cfg Config, client *chain.Client, signer chain.TxSigner, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{cfg: cfg, client: client, signer: signer, logger: logger}
}

// Signer returns the configured transaction signer, if any.
func (g *Gateway) Signer() chain.TxSigner {
	return g.signer
}

// Stable returns the stable reference asset.
func (g *Gateway) Stable() model.Token {
	return g.cfg.Stable
}

// RouterAddress returns the AMM router contract address.
func (g *Gateway) RouterAddress() common.Address {
	return g.cfg.Router
}

// LendingAddress returns the lending pool contract address.
func (g *Gateway) LendingAddress() common.Address {
	return g.cfg.LendingPool
}

func (g *Gateway) call(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := g.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func (g *Gateway) transact(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) (*chain.PendingTx, error) {
	if g.signer == nil {
		return nil, fmt.Errorf("%s: no signer configured", method)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	pending, err := g.client.Transact(ctx, g.signer, to, data, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	g.logger.Debug("transaction submitted",
		zap.String("method", method),
		zap.String("to", to.Hex()),
		zap.String("hash", pending.Hash.Hex()),
	)
	return pending, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func asBytes32(value interface{}) ([32]byte, error) {
	switch v := value.(type) {
	case [32]byte:
		return v, nil
	case common.Hash:
		return v, nil
	default:
		return [32]byte{}, fmt.Errorf("unsupported bytes32 type %T", value)
	}
}

func asBigIntSlice(value interface{}) ([]*big.Int, error) {
	switch v := value.(type) {
	case []*big.Int:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported slice type %T", value)
	}
}
