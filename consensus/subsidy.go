package consensus

import "math/bits"

// BlockSubsidy computes the subsidy of a block at height.
//
// alreadyGenerated is the sum of subsidy-only amounts (excluding fees and
// reward payouts) of the coinbase transactions at heights 1..height-1.
// Deriving it from chain state is the caller's responsibility.
func BlockSubsidy(height uint64, alreadyGenerated uint64) uint64 {
	if height == 0 {
		return 0
	}
	if alreadyGenerated >= MINEABLE_CAP {
		return TAIL_EMISSION_PER_BLOCK
	}
	remaining := MINEABLE_CAP - alreadyGenerated
	baseReward := remaining >> EMISSION_SPEED_FACTOR
	if baseReward < TAIL_EMISSION_PER_BLOCK {
		return TAIL_EMISSION_PER_BLOCK
	}
	return baseReward
}

// ValidateCoinbaseValue checks sum(coinbase outputs) <= subsidy + fees +
// rewardAllowance, where rewardAllowance is the verified amount of reward
// payments the block carries. The sum is computed in 128 bits.
func ValidateCoinbaseValue(coinbase *Tx, subsidy uint64, sumFees uint64, rewardAllowance uint64) error {
	if coinbase == nil {
		return txerr(BLOCK_ERR_COINBASE_INVALID, "missing coinbase")
	}
	var hi, lo uint64
	for _, out := range coinbase.Outputs {
		var carry uint64
		lo, carry = bits.Add64(lo, out.Value, 0)
		hi += carry
	}

	limLo, carry := bits.Add64(subsidy, sumFees, 0)
	limHi := carry
	limLo, carry = bits.Add64(limLo, rewardAllowance, 0)
	limHi += carry

	if hi > limHi || (hi == limHi && lo > limLo) {
		return txerr(BLOCK_ERR_SUBSIDY_EXCEEDED, "coinbase outputs exceed subsidy+fees+rewards bound")
	}
	return nil
}
