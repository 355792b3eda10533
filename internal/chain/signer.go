package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// TxSigner is the wallet abstraction. Interactive implementations may
// return model.ErrUserRejected from SignTx when the operator declines
// the prompt.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// KeyedSigner signs with an in-memory private key.
type KeyedSigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewKeyedSigner builds a signer from a hex-encoded private key.
func NewKeyedSigner(hexKey string) (*KeyedSigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &KeyedSigner{
		key:  key,
		addr: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (s *KeyedSigner) Address() common.Address {
	return s.addr
}

func (s *KeyedSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}
