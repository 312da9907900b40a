package consensus

import (
	"fmt"
	"math/bits"
	"slices"
)

// PayoutResult is the outcome of evaluating one height against the reward
// schedule. Exactly one value applies per evaluation.
type PayoutResult uint8

const (
	PayoutValid PayoutResult = iota
	PayoutNoRewardBlock
	PayoutDatabaseError
	PayoutInvalidRewardList
	PayoutNotSynced
)

func (r PayoutResult) String() string {
	switch r {
	case PayoutValid:
		return "valid"
	case PayoutNoRewardBlock:
		return "no_reward_block"
	case PayoutDatabaseError:
		return "database_error"
	case PayoutInvalidRewardList:
		return "invalid_reward_list"
	case PayoutNotSynced:
		return "not_synced"
	default:
		return fmt.Sprintf("payout_result(%d)", uint8(r))
	}
}

// RewardRound is the metadata of one accounting round. Number 0 means that no
// round has closed yet.
type RewardRound struct {
	Number              uint64
	EndBlockHeight      uint64
	EligibleEntries     uint64
	DisqualifiedEntries uint64
}

// Payable returns the number of entries that receive a payment. ok is false
// for a degenerate round in which nobody is payable.
func (r RewardRound) Payable() (uint64, bool) {
	if r.DisqualifiedEntries >= r.EligibleEntries {
		return 0, false
	}
	return r.EligibleEntries - r.DisqualifiedEntries, true
}

type RewardPayee struct {
	Destination Destination
	Reward      uint64
}

func (p RewardPayee) String() string {
	return fmt.Sprintf("%s=%d", p.Destination, p.Reward)
}

// ComparePayees orders payees by destination bytes, then by reward.
func ComparePayees(a, b RewardPayee) int {
	if c := CompareDestinations(a.Destination, b.Destination); c != 0 {
		return c
	}
	switch {
	case a.Reward < b.Reward:
		return -1
	case a.Reward > b.Reward:
		return 1
	default:
		return 0
	}
}

type RewardPayeeList []RewardPayee

// Sorted returns a stable-sorted copy. The receiver is not modified, so the
// result never depends on the order in which the list was fetched.
func (l RewardPayeeList) Sorted() RewardPayeeList {
	out := slices.Clone(l)
	slices.SortStableFunc(out, ComparePayees)
	return out
}

// Total sums rewards; ok is false on overflow.
func (l RewardPayeeList) Total() (uint64, bool) {
	var sum uint64
	for _, p := range l {
		var carry uint64
		sum, carry = bits.Add64(sum, p.Reward, 0)
		if carry != 0 {
			return 0, false
		}
	}
	return sum, true
}
