package consensus

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

type Tx struct {
	Version   uint32
	TxKind    uint8
	TxNonce   uint64
	Inputs    []TxInput
	Outputs   []TxOutput
	Locktime  uint32
	Witness   []WitnessItem
	DaPayload []byte
}

type TxInput struct {
	PrevTxid  [32]byte
	PrevVout  uint32
	ScriptSig []byte
	Sequence  uint32
}

type TxOutput struct {
	Value        uint64
	CovenantType uint16
	CovenantData []byte
}

type WitnessItem struct {
	SuiteID   uint8
	Pubkey    []byte
	Signature []byte
}

// Destination is the spendable-output descriptor of a TxOutput: everything
// except the value.
type Destination struct {
	CovenantType uint16
	CovenantData []byte
}

func (o TxOutput) Destination() Destination {
	return Destination{CovenantType: o.CovenantType, CovenantData: o.CovenantData}
}

// Bytes returns the canonical encoding u16le(covenant_type) ||
// compactsize(len) || covenant_data. Payee ordering is defined over it.
func (d Destination) Bytes() []byte {
	out := make([]byte, 0, 2+9+len(d.CovenantData))
	out = AppendU16le(out, d.CovenantType)
	out = AppendCompactSize(out, uint64(len(d.CovenantData)))
	return append(out, d.CovenantData...)
}

func (d Destination) Equal(o Destination) bool {
	return d.CovenantType == o.CovenantType && bytes.Equal(d.CovenantData, o.CovenantData)
}

func (d Destination) String() string {
	return fmt.Sprintf("%04x:%s", d.CovenantType, hex.EncodeToString(d.CovenantData))
}

// CompareDestinations is the byte-lexicographic order of the canonical
// encodings. Every node must sort payees with exactly this function.
func CompareDestinations(a, b Destination) int {
	return bytes.Compare(a.Bytes(), b.Bytes())
}

func (d Destination) Output(value uint64) TxOutput {
	return TxOutput{
		Value:        value,
		CovenantType: d.CovenantType,
		CovenantData: append([]byte(nil), d.CovenantData...),
	}
}

func isCoinbasePrevout(in TxInput) bool {
	var zero [32]byte
	return in.PrevTxid == zero && in.PrevVout == TX_COINBASE_PREVOUT_VOUT
}

func IsCoinbaseTx(tx *Tx) bool {
	if tx == nil {
		return false
	}
	if tx.TxKind != 0x00 || tx.TxNonce != 0 {
		return false
	}
	if len(tx.Inputs) != 1 || len(tx.Witness) != 0 || len(tx.DaPayload) != 0 {
		return false
	}
	in := tx.Inputs[0]
	return isCoinbasePrevout(in) && len(in.ScriptSig) == 0 && in.Sequence == TX_COINBASE_PREVOUT_VOUT
}
