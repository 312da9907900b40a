package node

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/rs/zerolog"

	"smartrewards.dev/node/consensus"
)

// SyncStatus reports whether the local round state can be trusted. The
// payment service never sets it; the surrounding node does.
type SyncStatus interface {
	RewardsSynced() bool
}

// RewardPaymentsConfig wires a RewardPayments. Sync is optional; nil means
// always synced.
type RewardPaymentsConfig struct {
	Params     consensus.RewardParams
	Activation consensus.RewardActivation
	Rounds     RoundStore
	Sync       SyncStatus
	Metrics    *RewardMetrics
	Logger     zerolog.Logger
}

// RewardPayments selects, fills and validates the reward slice of each
// payout block. It holds no mutable state of its own.
type RewardPayments struct {
	params     consensus.RewardParams
	activation consensus.RewardActivation
	rounds     RoundStore
	syncStatus SyncStatus
	metrics    *RewardMetrics
	log        zerolog.Logger
}

func NewRewardPayments(cfg RewardPaymentsConfig) (*RewardPayments, error) {
	if cfg.Rounds == nil {
		return nil, errors.New("reward payments: round store is nil")
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("reward payments: %w", err)
	}
	activation := cfg.Activation
	if activation == nil {
		activation = consensus.AlwaysEnabled
	}
	return &RewardPayments{
		params:     cfg.Params,
		activation: activation,
		rounds:     cfg.Rounds,
		syncStatus: cfg.Sync,
		metrics:    cfg.Metrics,
		log:        cfg.Logger.With().Str("component", "rewards").Str("network", cfg.Params.Network).Logger(),
	}, nil
}

// PaymentsForBlock returns the payees the block at height must pay. The
// slice is empty for every result except PayoutValid.
func (r *RewardPayments) PaymentsForBlock(height uint64, blockTime uint64) (consensus.RewardPayeeList, consensus.PayoutResult) {
	payees, _, res := r.selectPayments(height, blockTime)
	r.metrics.observeSelection(res)
	return payees, res
}

func (r *RewardPayments) selectPayments(height uint64, blockTime uint64) (consensus.RewardPayeeList, consensus.PayoutWindow, consensus.PayoutResult) {
	var none consensus.PayoutWindow
	if !r.activation.RewardsEnabled(height) {
		return nil, none, consensus.PayoutNoRewardBlock
	}
	if height < r.params.ActivationHeight {
		return nil, none, consensus.PayoutNoRewardBlock
	}
	if r.syncStatus != nil && !r.syncStatus.RewardsSynced() {
		return nil, none, consensus.PayoutNotSynced
	}

	round, err := r.rounds.LatestRound()
	if err != nil {
		r.log.Error().Err(err).Uint64("height", height).Msg("read latest reward round")
		return nil, none, consensus.PayoutDatabaseError
	}
	w, res := consensus.PayoutWindowAt(r.params, round, height)
	if res != consensus.PayoutValid {
		if res == consensus.PayoutDatabaseError {
			r.log.Error().Uint64("height", height).Uint64("round", round.Number).Msg("reward schedule overflows")
		}
		return nil, none, res
	}

	list, err := r.rounds.PayeeList(round.Number)
	if err != nil {
		r.log.Error().Err(err).Uint64("round", round.Number).Msg("read reward payee list")
		return nil, none, consensus.PayoutDatabaseError
	}
	if uint64(len(list)) != w.Payable {
		r.log.Error().
			Uint64("round", round.Number).
			Int("stored", len(list)).
			Uint64("payable", w.Payable).
			Msg("reward payee list does not match round counts")
		return nil, none, consensus.PayoutDatabaseError
	}

	slice, res := consensus.SlicePayees(list.Sorted(), w)
	if res != consensus.PayoutValid {
		r.log.Error().Uint64("round", round.Number).Uint64("start", w.Start).Uint64("end", w.End).Msg("reward slice out of range")
		return nil, none, res
	}
	r.log.Debug().
		Uint64("height", height).
		Uint64("block_time", blockTime).
		Uint64("round", round.Number).
		Uint64("ordinal", w.Ordinal).
		Uint64("blocks_needed", w.BlocksNeeded).
		Int("payees", len(slice)).
		Msg("payout block selected")
	return slice, w, consensus.PayoutValid
}

// FillPayments appends one output per positive-reward payee of the block
// at height to coinbase and returns the appended outputs. The transaction is
// untouched unless the selection is PayoutValid.
func (r *RewardPayments) FillPayments(coinbase *consensus.Tx, height uint64, prevBlockTime uint64) []consensus.TxOutput {
	if coinbase == nil {
		return nil
	}
	payees, w, res := r.selectPayments(height, prevBlockTime)
	r.metrics.observeSelection(res)
	if res != consensus.PayoutValid || len(payees) == 0 {
		return nil
	}

	var added []consensus.TxOutput
	for _, p := range payees {
		if p.Reward == 0 {
			continue
		}
		added = append(added, p.Destination.Output(p.Reward))
	}
	coinbase.Outputs = append(coinbase.Outputs, added...)
	r.metrics.observeFilled(len(added))

	ev := r.log.Info().
		Uint64("height", height).
		Uint64("round", w.Round).
		Uint64("ordinal", w.Ordinal).
		Uint64("blocks_needed", w.BlocksNeeded).
		Int("outputs", len(added))
	if total, ok := payees.Total(); ok {
		ev = ev.Uint64("amount", total)
	} else {
		ev = ev.Bool("amount_overflow", true)
	}
	ev.Msg("reward block created")
	return added
}

// RewardValidation is the detailed outcome of checking a block's coinbase
// against its reward slice.
type RewardValidation struct {
	Result   consensus.PayoutResult
	Verified uint64
	// Expected is the slice the block had to pay, empty outside payout blocks.
	Expected consensus.RewardPayeeList
	// Missing lists every positive-reward payee without a matching output.
	Missing consensus.RewardPayeeList
}

func (r *RewardPayments) Validate(block *consensus.Block, height uint64) (consensus.PayoutResult, uint64) {
	v := r.ValidateDetailed(block, height)
	return v.Result, v.Verified
}

func (r *RewardPayments) ValidateDetailed(block *consensus.Block, height uint64) RewardValidation {
	v := r.validate(block, height)
	r.metrics.observeValidation(v.Result, len(v.Missing))
	return v
}

func (r *RewardPayments) validate(block *consensus.Block, height uint64) RewardValidation {
	payees, _, res := r.selectPayments(height, block.BlockTime())
	r.metrics.observeSelection(res)

	switch res {
	case consensus.PayoutValid:
	case consensus.PayoutNotSynced, consensus.PayoutNoRewardBlock:
		return RewardValidation{Result: consensus.PayoutValid}
	default:
		return RewardValidation{Result: res}
	}

	v := RewardValidation{Result: consensus.PayoutValid, Expected: payees}
	var outputs []consensus.TxOutput
	if cb := block.Coinbase(); cb != nil {
		outputs = cb.Outputs
	}
	for _, p := range payees {
		if p.Reward == 0 {
			continue
		}
		value, ok := findPayment(outputs, p)
		if !ok {
			r.log.Warn().
				Uint64("height", height).
				Str("destination", p.Destination.String()).
				Uint64("reward", p.Reward).
				Msg("reward payment missing")
			v.Missing = append(v.Missing, p)
			continue
		}
		sum, carry := bits.Add64(v.Verified, value, 0)
		if carry != 0 {
			v.Missing = append(v.Missing, p)
			continue
		}
		v.Verified = sum
	}
	if len(v.Missing) > 0 {
		v.Result = consensus.PayoutInvalidRewardList
		r.log.Warn().
			Uint64("height", height).
			Int("expected", len(payees)).
			Int("missing", len(v.Missing)).
			Uint64("verified", v.Verified).
			Msg("block reward list invalid")
	}
	return v
}

// findPayment returns the value of the first output paying p's destination
// within PAYOUT_TOLERANCE of its reward.
func findPayment(outputs []consensus.TxOutput, p consensus.RewardPayee) (uint64, bool) {
	for _, out := range outputs {
		if !out.Destination().Equal(p.Destination) {
			continue
		}
		if absDiff(out.Value, p.Reward) < consensus.PAYOUT_TOLERANCE {
			return out.Value, true
		}
	}
	return 0, false
}

func absDiff(a, b uint64) uint64 {
	if a >= b {
		return a - b
	}
	return b - a
}

// CheckBlockRewards applies the acceptance policy to a block's reward
// payments and returns the verified amount the coinbase may carry on top of
// subsidy and fees. A local database inconsistency accepts the block without
// allowance.
func (r *RewardPayments) CheckBlockRewards(block *consensus.Block, height uint64) (uint64, error) {
	v := r.ValidateDetailed(block, height)
	switch v.Result {
	case consensus.PayoutValid:
		return v.Verified, nil
	case consensus.PayoutInvalidRewardList:
		return 0, &consensus.TxError{
			Code: consensus.BLOCK_ERR_REWARD_LIST_INVALID,
			Msg:  fmt.Sprintf("height %d: %d of %d reward payments missing", height, len(v.Missing), len(v.Expected)),
		}
	default:
		r.log.Warn().
			Uint64("height", height).
			Stringer("result", v.Result).
			Msg("reward state unavailable, accepting block without reward allowance")
		return 0, nil
	}
}

// CheckCoinbase runs CheckBlockRewards and bounds the coinbase value by
// subsidy, fees and the verified reward allowance.
func (r *RewardPayments) CheckCoinbase(block *consensus.Block, height uint64, alreadyGenerated uint64, sumFees uint64) error {
	verified, err := r.CheckBlockRewards(block, height)
	if err != nil {
		return err
	}
	subsidy := consensus.BlockSubsidy(height, alreadyGenerated)
	return consensus.ValidateCoinbaseValue(block.Coinbase(), subsidy, sumFees, verified)
}
