package indexer

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"ledgerview/internal/chain"
	"ledgerview/internal/model"
	"ledgerview/internal/storage"
)

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	Account   common.Address
	Tokens    []common.Address
	FromBlock uint64
	ToBlock   uint64
	BatchSize uint64
	Retry     RetryPolicy
}

// ChainReader is the part of the chain client the runner needs.
type ChainReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
}

// TokenResolver returns the symbol and decimals of a token contract.
type TokenResolver interface {
	Token(ctx context.Context, token common.Address) model.TokenMeta
}

// Runner syncs one account's ERC20 transfers into a ledger sink.
type Runner struct {
	cfg        RunConfig
	chain      ChainReader
	tokens     TokenResolver
	sink       storage.Sink
	checkpoint CheckpointStore
	logger     *zap.Logger
	seen       map[string]struct{}
}

// NewRunner builds a Runner with its dependencies. A nil checkpoint store
// disables resuming.
func NewRunner(cfg RunConfig, chainReader ChainReader, tokens TokenResolver, sink storage.Sink, checkpoint CheckpointStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkpoint == nil {
		checkpoint = NoCheckpoint{}
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainReader,
		tokens:     tokens,
		sink:       sink,
		checkpoint: checkpoint,
		logger:     logger,
		seen:       make(map[string]struct{}),
	}
}

// Run executes the sync loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if r.cfg.Account == (common.Address{}) {
		return fmt.Errorf("account is required")
	}

	topic, err := chain.TransferTopic()
	if err != nil {
		return fmt.Errorf("transfer topic: %w", err)
	}

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		var latest uint64
		err := r.cfg.Retry.Do(ctx, r.logger, "latest block", func(ctx context.Context) error {
			var err error
			latest, err = r.chain.LatestBlockNumber(ctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	last, ok, err := r.checkpoint.Load(ctx)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if ok && last >= from {
		from = last + 1
		r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last), zap.Uint64("from", from))
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	account := r.cfg.Account.Hex()
	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("fetch transfers",
			zap.String("account", account),
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
			zap.Uint64("blocks", blockRange.Blocks()),
		)

		logs, err := r.accountLogs(ctx, topic, blockRange)
		if err != nil {
			return fmt.Errorf("filter logs: %w", err)
		}

		events := make([]model.LedgerEvent, 0, len(logs))
		for _, log := range logs {
			if log.Removed {
				continue
			}
			tr, err := chain.DecodeTransfer(log)
			if err != nil {
				r.logger.Warn("skip undecodable transfer", zap.String("tx", log.TxHash.Hex()), zap.Uint("log_index", log.Index), zap.Error(err))
				continue
			}
			if r.isDuplicate(tr) {
				continue
			}

			ts, err := r.blockTimestamp(ctx, log.BlockNumber)
			if err != nil {
				return fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
			}
			meta := model.TokenMeta{Address: tr.Token.Hex()}
			if r.tokens != nil {
				meta = r.tokens.Token(ctx, tr.Token)
			}
			events = append(events, buildEvent(tr, ts, meta))
		}

		if err := r.sink.PutEventBatch(ctx, events); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
		if err := r.checkpoint.Save(ctx, blockRange.To); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}

		r.logger.Info("batch complete", zap.Int("events", len(events)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	}

	return nil
}

// accountLogs returns the Transfer logs sent from or to the account, in chain order.
func (r *Runner) accountLogs(ctx context.Context, topic common.Hash, blockRange BlockRange) ([]types.Log, error) {
	accountTopic := common.BytesToHash(r.cfg.Account.Bytes())
	queries := []ethereum.FilterQuery{
		r.query(blockRange, [][]common.Hash{{topic}, {accountTopic}}),
		r.query(blockRange, [][]common.Hash{{topic}, nil, {accountTopic}}),
	}

	var logs []types.Log
	for _, query := range queries {
		var batch []types.Log
		err := r.cfg.Retry.Do(ctx, r.logger, "filter logs", func(ctx context.Context) error {
			var err error
			batch, err = r.chain.FilterLogs(ctx, query)
			return err
		})
		if err != nil {
			return nil, err
		}
		logs = append(logs, batch...)
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})
	return logs, nil
}

func (r *Runner) query(blockRange BlockRange, topics [][]common.Hash) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(blockRange.From),
		ToBlock:   new(big.Int).SetUint64(blockRange.To),
		Addresses: r.cfg.Tokens,
		Topics:    topics,
	}
}

func (r *Runner) blockTimestamp(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := r.cfg.Retry.Do(ctx, r.logger, "block timestamp", func(ctx context.Context) error {
		var err error
		ts, err = r.chain.BlockTimestamp(ctx, blockNumber)
		return err
	})
	return ts, err
}

// isDuplicate reports whether the transfer was already seen in this run. A
// transfer from the account to itself matches both filter queries.
func (r *Runner) isDuplicate(tr chain.Transfer) bool {
	id := tr.ID()
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}

var (
	_ ChainReader    = (*chain.Client)(nil)
	_ TokenResolver  = (*chain.TokenCache)(nil)
)
