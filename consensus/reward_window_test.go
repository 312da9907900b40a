package consensus

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func testParams(perBlock, interval, delay uint64) RewardParams {
	return RewardParams{
		Network:          "unit",
		PayoutStartDelay: delay,
		Cadences:         []PayoutCadence{{FromRound: 0, PayoutsPerBlock: perBlock, PayoutInterval: interval}},
	}
}

func TestPayoutWindowAt_RemainderPolicy(t *testing.T) {
	p := testParams(3, 1, 0)
	round := RewardRound{Number: 1, EndBlockHeight: 100, EligibleEntries: 10}

	want := []struct {
		height uint64
		start  uint64
		end    uint64
	}{
		{100, 0, 3},
		{101, 3, 6},
		{102, 6, 9},
		{103, 9, 10},
	}
	for i, tc := range want {
		w, res := PayoutWindowAt(p, round, tc.height)
		require.Equal(t, PayoutValid, res, "height %d", tc.height)
		require.Equal(t, uint64(4), w.BlocksNeeded)
		require.Equal(t, uint64(i+1), w.Ordinal)
		require.Equal(t, tc.start, w.Start)
		require.Equal(t, tc.end, w.End)
		require.Equal(t, uint64(103), w.LastPayoutHeight)
	}

	_, res := PayoutWindowAt(p, round, 104)
	require.Equal(t, PayoutNoRewardBlock, res)
}

func TestPayoutWindowAt_ExactMultipleHasFullLastBlock(t *testing.T) {
	p := testParams(5, 2, 3)
	round := RewardRound{Number: 4, EndBlockHeight: 50, EligibleEntries: 12, DisqualifiedEntries: 2}

	w, res := PayoutWindowAt(p, round, 55)
	require.Equal(t, PayoutValid, res)
	require.Equal(t, uint64(10), w.Payable)
	require.Equal(t, uint64(2), w.BlocksNeeded)
	require.Equal(t, uint64(53), w.FirstPayoutHeight)
	require.True(t, w.IsLast())
	require.Equal(t, uint64(5), w.Count())
	require.Equal(t, uint64(5), w.Start)
}

func TestPayoutWindowAt_WindowBoundaries(t *testing.T) {
	p := testParams(2, 3, 10)
	round := RewardRound{Number: 2, EndBlockHeight: 1000, EligibleEntries: 7}
	// blocksNeeded = 4, payout heights 1010, 1013, 1016, 1019.
	payout := map[uint64]bool{1010: true, 1013: true, 1016: true, 1019: true}

	for h := uint64(990); h <= 1030; h++ {
		w, res := PayoutWindowAt(p, round, h)
		if payout[h] {
			require.Equal(t, PayoutValid, res, "height %d", h)
			require.Equal(t, uint64(1019), w.LastPayoutHeight)
			continue
		}
		require.Equal(t, PayoutNoRewardBlock, res, "height %d", h)
		require.Equal(t, PayoutWindow{}, w)
	}
}

func TestPayoutWindowAt_NoRound(t *testing.T) {
	_, res := PayoutWindowAt(testParams(3, 1, 0), RewardRound{}, 500)
	require.Equal(t, PayoutNoRewardBlock, res)
}

func TestPayoutWindowAt_DegenerateRound(t *testing.T) {
	p := testParams(3, 1, 0)
	for _, round := range []RewardRound{
		{Number: 1, EndBlockHeight: 10, EligibleEntries: 5, DisqualifiedEntries: 5},
		{Number: 1, EndBlockHeight: 10, EligibleEntries: 5, DisqualifiedEntries: 6},
		{Number: 1, EndBlockHeight: 10},
	} {
		for h := uint64(0); h < 40; h++ {
			w, res := PayoutWindowAt(p, round, h)
			require.Equal(t, PayoutNoRewardBlock, res)
			require.Equal(t, PayoutWindow{}, w)
		}
		sched, res := PayoutSchedule(p, round)
		require.Equal(t, PayoutNoRewardBlock, res)
		require.Empty(t, sched)
	}
}

func TestPayoutWindowAt_OverflowIsDatabaseError(t *testing.T) {
	p := testParams(1, math.MaxUint64, 0)
	round := RewardRound{Number: 1, EndBlockHeight: 10, EligibleEntries: 3}
	_, res := PayoutWindowAt(p, round, 10)
	require.Equal(t, PayoutDatabaseError, res)

	p = testParams(1, 1, 5)
	round = RewardRound{Number: 1, EndBlockHeight: math.MaxUint64 - 2, EligibleEntries: 1}
	_, res = PayoutWindowAt(p, round, math.MaxUint64)
	require.Equal(t, PayoutDatabaseError, res)
}

func TestPayoutWindowAt_CadenceByRound(t *testing.T) {
	p := TestNetRewardParams
	end := uint64(5000)
	early := RewardRound{Number: testnetCadenceSwitchRound - 1, EndBlockHeight: end, EligibleEntries: 250}
	late := RewardRound{Number: testnetCadenceSwitchRound, EndBlockHeight: end, EligibleEntries: 250}

	we, res := PayoutWindowAt(p, early, end+p.PayoutStartDelay)
	require.Equal(t, PayoutValid, res)
	require.Equal(t, uint64(100), we.Cadence.PayoutsPerBlock)
	require.Equal(t, uint64(3), we.BlocksNeeded)

	wl, res := PayoutWindowAt(p, late, end+p.PayoutStartDelay)
	require.Equal(t, PayoutValid, res)
	require.Equal(t, uint64(50), wl.Cadence.PayoutsPerBlock)
	require.Equal(t, uint64(5), wl.BlocksNeeded)
	require.Equal(t, end+p.PayoutStartDelay+8, wl.LastPayoutHeight)
}

func TestPayoutSchedule_PartitionsPayeeList(t *testing.T) {
	for _, tc := range []struct {
		perBlock, interval, payable uint64
	}{
		{3, 1, 10},
		{3, 2, 9},
		{1, 1, 1},
		{7, 4, 6},
		{1000, 2, 2501},
	} {
		p := testParams(tc.perBlock, tc.interval, 7)
		round := RewardRound{Number: 9, EndBlockHeight: 300, EligibleEntries: tc.payable + 2, DisqualifiedEntries: 2}
		sched, res := PayoutSchedule(p, round)
		require.Equal(t, PayoutValid, res)

		var next uint64
		for i, w := range sched {
			require.Equal(t, uint64(i+1), w.Ordinal)
			require.Equal(t, next, w.Start, "gap or overlap at ordinal %d", w.Ordinal)
			require.LessOrEqual(t, w.Count(), tc.perBlock)
			require.NotZero(t, w.Count())
			again, res := PayoutWindowAt(p, round, w.Height)
			require.Equal(t, PayoutValid, res)
			require.Equal(t, w, again)
			next = w.End
		}
		require.Equal(t, tc.payable, next)
		require.True(t, sched[len(sched)-1].IsLast())
	}
}

func TestSlicePayees(t *testing.T) {
	list := RewardPayeeList{
		{Destination: Destination{CovenantData: []byte{1}}, Reward: 1},
		{Destination: Destination{CovenantData: []byte{2}}, Reward: 2},
		{Destination: Destination{CovenantData: []byte{3}}, Reward: 3},
	}
	got, res := SlicePayees(list, PayoutWindow{Start: 1, End: 3})
	require.Equal(t, PayoutValid, res)
	require.Equal(t, list[1:3], got)

	got[0].Reward = 99
	require.Equal(t, uint64(2), list[1].Reward, "slice must be a private copy")

	_, res = SlicePayees(list, PayoutWindow{Start: 2, End: 4})
	require.Equal(t, PayoutDatabaseError, res)
}
