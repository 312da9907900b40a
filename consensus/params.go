package consensus

import (
	"fmt"
	"strings"
)

// PayoutCadence applies to every round numbered FromRound or higher until the
// next cadence takes over.
type PayoutCadence struct {
	FromRound       uint64
	PayoutsPerBlock uint64
	PayoutInterval  uint64
}

type RewardParams struct {
	Network string
	// ActivationHeight is the first height at which the payout schedule is
	// evaluated at all.
	ActivationHeight uint64
	// PayoutStartDelay is the number of blocks between a round's end height
	// and its first payout block.
	PayoutStartDelay uint64
	Cadences         []PayoutCadence
}

const (
	mainnetRewardsForkHeight = 574_100
	mainnetBlocksPerRound    = 47_500

	testnetCadenceSwitchRound = 68
)

var MainNetRewardParams = RewardParams{
	Network:          "mainnet",
	ActivationHeight: mainnetRewardsForkHeight + mainnetBlocksPerRound,
	PayoutStartDelay: 200,
	Cadences: []PayoutCadence{
		{FromRound: 0, PayoutsPerBlock: 1000, PayoutInterval: 2},
	},
}

var TestNetRewardParams = RewardParams{
	Network:          "testnet",
	ActivationHeight: 1000,
	PayoutStartDelay: 10,
	Cadences: []PayoutCadence{
		{FromRound: 0, PayoutsPerBlock: 100, PayoutInterval: 5},
		{FromRound: testnetCadenceSwitchRound, PayoutsPerBlock: 50, PayoutInterval: 2},
	},
}

var DevNetRewardParams = RewardParams{
	Network:          "devnet",
	ActivationHeight: 0,
	PayoutStartDelay: 2,
	Cadences: []PayoutCadence{
		{FromRound: 0, PayoutsPerBlock: 3, PayoutInterval: 1},
	},
}

func RewardParamsForNetwork(name string) (RewardParams, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mainnet":
		return MainNetRewardParams, nil
	case "testnet":
		return TestNetRewardParams, nil
	case "devnet":
		return DevNetRewardParams, nil
	default:
		return RewardParams{}, fmt.Errorf("unknown network %q", name)
	}
}

func (p RewardParams) Validate() error {
	if len(p.Cadences) == 0 {
		return txerr(REWARD_ERR_PARAMS_INVALID, "no payout cadence")
	}
	if p.Cadences[0].FromRound != 0 {
		return txerr(REWARD_ERR_PARAMS_INVALID, "first cadence must start at round 0")
	}
	for i, c := range p.Cadences {
		if c.PayoutsPerBlock == 0 {
			return txerr(REWARD_ERR_PARAMS_INVALID, fmt.Sprintf("cadence %d: payouts_per_block must be > 0", i))
		}
		if c.PayoutInterval == 0 {
			return txerr(REWARD_ERR_PARAMS_INVALID, fmt.Sprintf("cadence %d: payout_interval must be > 0", i))
		}
		if i > 0 && c.FromRound <= p.Cadences[i-1].FromRound {
			return txerr(REWARD_ERR_PARAMS_INVALID, fmt.Sprintf("cadence %d: from_round not increasing", i))
		}
	}
	return nil
}

// CadenceForRound returns the last cadence with FromRound <= round. Params
// are assumed valid.
func (p RewardParams) CadenceForRound(round uint64) PayoutCadence {
	var out PayoutCadence
	for _, c := range p.Cadences {
		if c.FromRound > round {
			break
		}
		out = c
	}
	return out
}
