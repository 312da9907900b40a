package node

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"smartrewards.dev/node/consensus"
)

func TestBuildCoinbaseTxWithoutRewards(t *testing.T) {
	miner := consensus.TxOutput{Value: 42, CovenantType: consensus.COV_TYPE_P2PK, CovenantData: []byte{0x01}}
	tx, added, err := BuildCoinbaseTx(7, 0, miner, nil)
	require.NoError(t, err)
	require.Empty(t, added)
	require.True(t, consensus.IsCoinbaseTx(tx))
	require.Equal(t, uint32(7), tx.Locktime)
	require.Equal(t, []consensus.TxOutput{miner}, tx.Outputs)

	raw, err := consensus.MarshalTx(tx)
	require.NoError(t, err)
	parsed, txid, consumed, err := consensus.ParseTx(raw)
	require.NoError(t, err)
	require.Equal(t, len(raw), consumed)
	require.Equal(t, consensus.TxID(tx), txid)
	require.Equal(t, tx, parsed)
}

func TestBuildCoinbaseTxAppendsRewardSlice(t *testing.T) {
	list := tenPayees()
	p := newTestPayments(t, roundOne(shuffled(list, 5)))

	miner := consensus.TxOutput{Value: 42}
	tx, added, err := BuildCoinbaseTx(105, 0, miner, p)
	require.NoError(t, err)
	require.Equal(t, payOutputs(list[9:]), added)
	require.Len(t, tx.Outputs, 2)

	// The assembled coinbase passes its own validation.
	block := &consensus.Block{Txs: []*consensus.Tx{tx}}
	res, verified := p.Validate(block, 105)
	require.Equal(t, consensus.PayoutValid, res)
	require.Equal(t, list[9].Reward, verified)
}

func TestBuildCoinbaseTxRejectsHeightOverflow(t *testing.T) {
	_, _, err := BuildCoinbaseTx(math.MaxUint32+1, 0, consensus.TxOutput{}, nil)
	require.Error(t, err)
}
