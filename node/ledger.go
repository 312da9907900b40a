package node

import (
	"errors"
	"fmt"
	"sync"

	"smartrewards.dev/node/consensus"
)

// RoundStore is the read side of the round-accounting store used by the
// payment service.
type RoundStore interface {
	LatestRound() (consensus.RewardRound, error)
	PayeeList(round uint64) (consensus.RewardPayeeList, error)
}

// RoundBackend is the persistence a RoundLedger serializes. *store.DB
// implements it.
type RoundBackend interface {
	RoundStore
	PutRound(round consensus.RewardRound, payees consensus.RewardPayeeList) error
}

var ErrNilRoundBackend = errors.New("round backend is nil")

// RoundLedger serializes round advancement against readers. The lock covers
// backend access only; callers sort and slice their own copies.
type RoundLedger struct {
	mu      sync.RWMutex
	backend RoundBackend
}

func NewRoundLedger(backend RoundBackend) (*RoundLedger, error) {
	if backend == nil {
		return nil, ErrNilRoundBackend
	}
	return &RoundLedger{backend: backend}, nil
}

func (l *RoundLedger) LatestRound() (consensus.RewardRound, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.backend.LatestRound()
}

// PayeeList returns a copy the caller may reorder freely.
func (l *RoundLedger) PayeeList(round uint64) (consensus.RewardPayeeList, error) {
	l.mu.RLock()
	list, err := l.backend.PayeeList(round)
	l.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return clonePayees(list), nil
}

// CloseRound records the next round and its payees. Rounds are append-only:
// the number must follow the latest round and the end height may not move
// backwards.
func (l *RoundLedger) CloseRound(round consensus.RewardRound, payees consensus.RewardPayeeList) error {
	payable, ok := round.Payable()
	if !ok {
		if round.DisqualifiedEntries > round.EligibleEntries {
			return roundErr(fmt.Sprintf("round %d: disqualified %d > eligible %d", round.Number, round.DisqualifiedEntries, round.EligibleEntries))
		}
		payable = 0
	}
	if uint64(len(payees)) != payable {
		return roundErr(fmt.Sprintf("round %d: %d payees, want %d", round.Number, len(payees), payable))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	latest, err := l.backend.LatestRound()
	if err != nil {
		return err
	}
	if round.Number != latest.Number+1 {
		return roundErr(fmt.Sprintf("round %d does not follow latest round %d", round.Number, latest.Number))
	}
	if latest.Number != 0 && round.EndBlockHeight < latest.EndBlockHeight {
		return roundErr(fmt.Sprintf("round %d: end height %d below round %d end height %d", round.Number, round.EndBlockHeight, latest.Number, latest.EndBlockHeight))
	}
	return l.backend.PutRound(round, clonePayees(payees))
}

func clonePayees(list consensus.RewardPayeeList) consensus.RewardPayeeList {
	if list == nil {
		return nil
	}
	out := make(consensus.RewardPayeeList, len(list))
	for i, p := range list {
		out[i] = consensus.RewardPayee{
			Destination: consensus.Destination{
				CovenantType: p.Destination.CovenantType,
				CovenantData: append([]byte(nil), p.Destination.CovenantData...),
			},
			Reward: p.Reward,
		}
	}
	return out
}

func roundErr(msg string) error {
	return &consensus.TxError{Code: consensus.REWARD_ERR_ROUND_INVALID, Msg: msg}
}
