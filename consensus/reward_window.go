package consensus

import (
	"math/bits"
	"slices"
)

// maxScheduleWindows bounds PayoutSchedule allocations.
const maxScheduleWindows = 1 << 20

// PayoutWindow locates one payout block inside its round's schedule.
// [Start, End) indexes the round's sorted payee list.
type PayoutWindow struct {
	Round             uint64
	Height            uint64
	Payable           uint64
	BlocksNeeded      uint64
	FirstPayoutHeight uint64
	LastPayoutHeight  uint64
	Ordinal           uint64
	Start             uint64
	End               uint64
	Cadence           PayoutCadence
}

func (w PayoutWindow) Count() uint64 { return w.End - w.Start }

func (w PayoutWindow) IsLast() bool { return w.Ordinal == w.BlocksNeeded }

type roundSchedule struct {
	payable      uint64
	blocksNeeded uint64
	first        uint64
	last         uint64
	cadence      PayoutCadence
}

func scheduleForRound(p RewardParams, round RewardRound) (roundSchedule, PayoutResult) {
	var s roundSchedule
	if round.Number == 0 {
		return s, PayoutNoRewardBlock
	}
	first, carry := bits.Add64(round.EndBlockHeight, p.PayoutStartDelay, 0)
	if carry != 0 {
		return s, PayoutDatabaseError
	}
	payable, ok := round.Payable()
	if !ok {
		return s, PayoutNoRewardBlock
	}
	cadence := p.CadenceForRound(round.Number)
	if cadence.PayoutsPerBlock == 0 || cadence.PayoutInterval == 0 {
		return s, PayoutDatabaseError
	}

	blocksNeeded := payable / cadence.PayoutsPerBlock
	if payable%cadence.PayoutsPerBlock != 0 {
		blocksNeeded++
	}
	hi, span := bits.Mul64(blocksNeeded-1, cadence.PayoutInterval)
	if hi != 0 {
		return s, PayoutDatabaseError
	}
	last, carry := bits.Add64(first, span, 0)
	if carry != 0 {
		return s, PayoutDatabaseError
	}

	s = roundSchedule{
		payable:      payable,
		blocksNeeded: blocksNeeded,
		first:        first,
		last:         last,
		cadence:      cadence,
	}
	return s, PayoutValid
}

// PayoutWindowAt decides whether height is a payout block of round and, if
// so, which slice of the sorted payee list it carries. Any result other than
// PayoutValid comes with a zero window.
func PayoutWindowAt(p RewardParams, round RewardRound, height uint64) (PayoutWindow, PayoutResult) {
	if round.Number == 0 {
		return PayoutWindow{}, PayoutNoRewardBlock
	}
	// The round's window has not opened yet.
	if first, carry := bits.Add64(round.EndBlockHeight, p.PayoutStartDelay, 0); carry == 0 && height < first {
		return PayoutWindow{}, PayoutNoRewardBlock
	}

	s, res := scheduleForRound(p, round)
	if res != PayoutValid {
		return PayoutWindow{}, res
	}
	return windowForHeight(round, s, height)
}

func windowForHeight(round RewardRound, s roundSchedule, height uint64) (PayoutWindow, PayoutResult) {
	if height < s.first || height > s.last {
		return PayoutWindow{}, PayoutNoRewardBlock
	}
	interval := s.cadence.PayoutInterval
	if (s.last-height)%interval != 0 {
		return PayoutWindow{}, PayoutNoRewardBlock
	}

	per := s.cadence.PayoutsPerBlock
	ordinal := s.blocksNeeded - (s.last-height)/interval
	count := per
	if ordinal == s.blocksNeeded && s.payable%per != 0 {
		count = s.payable % per
	}
	start := (ordinal - 1) * per

	return PayoutWindow{
		Round:             round.Number,
		Height:            height,
		Payable:           s.payable,
		BlocksNeeded:      s.blocksNeeded,
		FirstPayoutHeight: s.first,
		LastPayoutHeight:  s.last,
		Ordinal:           ordinal,
		Start:             start,
		End:               start + count,
		Cadence:           s.cadence,
	}, PayoutValid
}

// PayoutSchedule lists every payout window of round in ordinal order.
func PayoutSchedule(p RewardParams, round RewardRound) ([]PayoutWindow, PayoutResult) {
	s, res := scheduleForRound(p, round)
	if res != PayoutValid {
		return nil, res
	}
	if s.blocksNeeded > maxScheduleWindows {
		return nil, PayoutDatabaseError
	}
	out := make([]PayoutWindow, 0, s.blocksNeeded)
	for h := s.first; ; h += s.cadence.PayoutInterval {
		w, res := windowForHeight(round, s, h)
		if res != PayoutValid {
			return nil, PayoutDatabaseError
		}
		out = append(out, w)
		if h == s.last {
			break
		}
	}
	return out, PayoutValid
}

// SlicePayees returns a copy of sorted[w.Start:w.End]. An End beyond the list
// means the round's counts and the stored list disagree.
func SlicePayees(sorted RewardPayeeList, w PayoutWindow) (RewardPayeeList, PayoutResult) {
	if w.End < w.Start || w.End > uint64(len(sorted)) {
		return nil, PayoutDatabaseError
	}
	return slices.Clone(sorted[w.Start:w.End]), PayoutValid
}
