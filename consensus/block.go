package consensus

type BlockHeader struct {
	Version       uint32
	PrevBlockHash [32]byte
	MerkleRoot    [32]byte
	Timestamp     uint64
	Target        [32]byte
	Nonce         uint64
}

type Block struct {
	Header BlockHeader
	Txs    []*Tx
}

// Coinbase returns the first transaction, or nil for an empty block.
func (b *Block) Coinbase() *Tx {
	if b == nil || len(b.Txs) == 0 {
		return nil
	}
	return b.Txs[0]
}

func (b *Block) BlockTime() uint64 {
	if b == nil {
		return 0
	}
	return b.Header.Timestamp
}
