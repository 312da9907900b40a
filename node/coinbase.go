package node

import (
	"errors"
	"math"

	"smartrewards.dev/node/consensus"
)

// BuildCoinbaseTx assembles the coinbase of the block at height: the miner
// output first, then the reward outputs of the height's payout slice, if any.
// payments may be nil before rewards are wired.
func BuildCoinbaseTx(height uint64, prevBlockTime uint64, miner consensus.TxOutput, payments *RewardPayments) (*consensus.Tx, []consensus.TxOutput, error) {
	if height > math.MaxUint32 {
		return nil, nil, errors.New("block height exceeds coinbase locktime range")
	}
	tx := &consensus.Tx{
		Version: consensus.TX_VERSION_V1,
		TxKind:  0x00,
		TxNonce: 0,
		Inputs: []consensus.TxInput{{
			PrevVout: consensus.TX_COINBASE_PREVOUT_VOUT,
			Sequence: consensus.TX_COINBASE_PREVOUT_VOUT,
		}},
		Outputs:  []consensus.TxOutput{miner},
		Locktime: uint32(height), // locktime == block height
	}
	var added []consensus.TxOutput
	if payments != nil {
		added = payments.FillPayments(tx, height, prevBlockTime)
	}
	return tx, added, nil
}
