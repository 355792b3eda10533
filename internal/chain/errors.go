package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flowonarc/internal/model"
)

// ClassifyCallError maps an RPC failure onto the shared taxonomy:
// contract rejections become ErrCallReverted, everything else (dial
// failures, timeouts, dropped connections) becomes ErrNetwork.
func ClassifyCallError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrCallReverted) || errors.Is(err, model.ErrNetwork) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", model.ErrNetwork, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "execution reverted") ||
		strings.Contains(msg, "revert") ||
		strings.Contains(msg, "invalid opcode") {
		return fmt.Errorf("%w: %v", model.ErrCallReverted, err)
	}
	return fmt.Errorf("%w: %v", model.ErrNetwork, err)
}
