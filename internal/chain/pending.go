package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"flowonarc/internal/model"
)

// PendingTx is a submitted transaction awaiting inclusion. Hash is
// available immediately; Wait blocks until the transaction is mined.
type PendingTx struct {
	Hash   common.Hash
	tx     *types.Transaction
	client *ethclient.Client
}

// TxHash returns the transaction hash as a hex string.
func (p *PendingTx) TxHash() string {
	return p.Hash.Hex()
}

// Await blocks until the transaction is mined, discarding the receipt.
func (p *PendingTx) Await(ctx context.Context) error {
	_, err := p.Wait(ctx)
	return err
}

// Wait blocks until the transaction is mined and returns the receipt.
// A mined-but-failed transaction yields ErrTransactionReverted.
func (p *PendingTx) Wait(ctx context.Context) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, p.client, p.tx)
	if err != nil {
		return nil, fmt.Errorf("wait mined %s: %w", p.Hash.Hex(), ClassifyCallError(err))
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return receipt, fmt.Errorf("%w: %s", model.ErrTransactionReverted, p.Hash.Hex())
	}
	return receipt, nil
}
