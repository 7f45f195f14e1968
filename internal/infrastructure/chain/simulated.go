package chain

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SimulatedClient ничего не отправляет в сеть и возвращает случайный хеш.
// Для локального запуска и нагрузочных тестов.
type SimulatedClient struct {
	log *zap.Logger
}

func NewSimulatedClient(log *zap.Logger) *SimulatedClient {
	return &SimulatedClient{log: log}
}

func (c *SimulatedClient) Transfer(ctx context.Context, to string, amount decimal.Decimal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ValidateAddress(to); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransfer, err)
	}

	var b [common.HashLength]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	txHash := common.BytesToHash(b[:]).Hex()

	c.log.Info("simulated chain transfer",
		zap.String("to", to),
		zap.String("amount", amount.String()),
		zap.String("tx_hash", txHash),
	)
	return txHash, nil
}
