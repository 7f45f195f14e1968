package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultTransferMethod = "payout_transfer"

var (
	ErrNotConfigured = errors.New("chain rpc url is not configured")
	ErrTransfer      = errors.New("chain transfer failed")
	ErrEmptyTxHash   = errors.New("chain gateway returned empty transaction hash")
)

type Config struct {
	RPCURL          string
	PlatformAddress string
	TransferMethod  string
	Timeout         time.Duration
}

// transferParams - тело запроса к шлюзу переводов
type transferParams struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// RPCClient отправляет переводы через JSON-RPC шлюз.
// Соединение открывается при первом переводе и пересоздается после сетевой ошибки.
type RPCClient struct {
	cfg    Config
	log    *zap.Logger
	mu     sync.Mutex
	client *rpc.Client
}

func NewRPCClient(cfg Config, log *zap.Logger) *RPCClient {
	if cfg.TransferMethod == "" {
		cfg.TransferMethod = DefaultTransferMethod
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &RPCClient{cfg: cfg, log: log}
}

func (c *RPCClient) Transfer(ctx context.Context, to string, amount decimal.Decimal) (string, error) {
	client, err := c.conn(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransfer, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var txHash string
	err = client.CallContext(callCtx, &txHash, c.cfg.TransferMethod, transferParams{
		From:   c.cfg.PlatformAddress,
		To:     to,
		Amount: amount.String(),
	})
	if err != nil {
		// ошибка шлюза приходит в ответе, соединение при этом живое
		var rpcErr rpc.Error
		if !errors.As(err, &rpcErr) {
			c.reset(client)
		}
		c.log.Error("chain transfer failed",
			zap.String("to", to),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	if txHash == "" {
		return "", ErrEmptyTxHash
	}

	c.log.Info("chain transfer submitted",
		zap.String("to", to),
		zap.String("amount", amount.String()),
		zap.String("tx_hash", txHash),
	)
	return txHash, nil
}

// Close закрывает соединение. Следующий Transfer откроет новое.
func (c *RPCClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
}

func (c *RPCClient) conn(ctx context.Context) (*rpc.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if c.cfg.RPCURL == "" {
		return nil, ErrNotConfigured
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	client, err := rpc.DialContext(dialCtx, c.cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.cfg.RPCURL, err)
	}
	c.log.Debug("chain rpc connected", zap.String("url", c.cfg.RPCURL))
	c.client = client
	return client, nil
}

// reset сбрасывает соединение, если оно все еще текущее
func (c *RPCClient) reset(stale *rpc.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == stale {
		c.client.Close()
		c.client = nil
	}
}
