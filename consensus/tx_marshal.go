package consensus

import "fmt"

// MarshalTx serialises a Tx into its canonical wire-format bytes.
// ParseTx is its exact inverse.
func MarshalTx(tx *Tx) ([]byte, error) {
	if tx == nil {
		return nil, fmt.Errorf("nil tx")
	}
	b := marshalTxCore(nil, tx)

	b = AppendCompactSize(b, uint64(len(tx.Witness)))
	for _, w := range tx.Witness {
		b = append(b, w.SuiteID)
		b = AppendCompactSize(b, uint64(len(w.Pubkey)))
		b = append(b, w.Pubkey...)
		b = AppendCompactSize(b, uint64(len(w.Signature)))
		b = append(b, w.Signature...)
	}

	b = AppendCompactSize(b, uint64(len(tx.DaPayload)))
	b = append(b, tx.DaPayload...)
	return b, nil
}

// marshalTxCore writes version | tx_kind | tx_nonce | inputs | outputs | locktime.
func marshalTxCore(b []byte, tx *Tx) []byte {
	b = AppendU32le(b, tx.Version)
	b = append(b, tx.TxKind)
	b = AppendU64le(b, tx.TxNonce)

	b = AppendCompactSize(b, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		b = append(b, in.PrevTxid[:]...)
		b = AppendU32le(b, in.PrevVout)
		b = AppendCompactSize(b, uint64(len(in.ScriptSig)))
		b = append(b, in.ScriptSig...)
		b = AppendU32le(b, in.Sequence)
	}

	b = AppendCompactSize(b, uint64(len(tx.Outputs)))
	for _, o := range tx.Outputs {
		b = AppendU64le(b, o.Value)
		b = AppendU16le(b, o.CovenantType)
		b = AppendCompactSize(b, uint64(len(o.CovenantData)))
		b = append(b, o.CovenantData...)
	}

	return AppendU32le(b, tx.Locktime)
}

// TxID commits to the core encoding only; witness and DA bytes are excluded.
func TxID(tx *Tx) [32]byte {
	if tx == nil {
		return [32]byte{}
	}
	return sha3_256(marshalTxCore(nil, tx))
}
