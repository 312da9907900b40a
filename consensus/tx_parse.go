package consensus

import "math"

// ParseTx decodes one canonical transaction from the start of b and returns
// it together with its txid and the number of bytes consumed.
func ParseTx(b []byte) (*Tx, [32]byte, int, error) {
	var zero [32]byte
	off := 0

	version, err := readU32le(b, &off)
	if err != nil {
		return nil, zero, 0, err
	}
	txKind, err := readU8(b, &off)
	if err != nil {
		return nil, zero, 0, err
	}
	if txKind != 0x00 {
		return nil, zero, 0, txerr(TX_ERR_PARSE, "unsupported tx_kind")
	}
	txNonce, err := readU64le(b, &off)
	if err != nil {
		return nil, zero, 0, err
	}

	inCount, err := readCount(b, &off, MAX_TX_INPUTS, "input_count")
	if err != nil {
		return nil, zero, 0, err
	}
	inputs := make([]TxInput, 0, inCount)
	for i := 0; i < inCount; i++ {
		prevTxid, err := readBytes(b, &off, 32)
		if err != nil {
			return nil, zero, 0, err
		}
		prevVout, err := readU32le(b, &off)
		if err != nil {
			return nil, zero, 0, err
		}
		scriptSigLen, err := readCount(b, &off, MAX_SCRIPT_SIG_BYTES, "script_sig_len")
		if err != nil {
			return nil, zero, 0, err
		}
		scriptSig, err := readBytes(b, &off, scriptSigLen)
		if err != nil {
			return nil, zero, 0, err
		}
		sequence, err := readU32le(b, &off)
		if err != nil {
			return nil, zero, 0, err
		}
		in := TxInput{
			PrevVout:  prevVout,
			ScriptSig: append([]byte(nil), scriptSig...),
			Sequence:  sequence,
		}
		copy(in.PrevTxid[:], prevTxid)
		inputs = append(inputs, in)
	}

	outCount, err := readCount(b, &off, MAX_TX_OUTPUTS, "output_count")
	if err != nil {
		return nil, zero, 0, err
	}
	outputs := make([]TxOutput, 0, outCount)
	for i := 0; i < outCount; i++ {
		value, err := readU64le(b, &off)
		if err != nil {
			return nil, zero, 0, err
		}
		covType, err := readU16le(b, &off)
		if err != nil {
			return nil, zero, 0, err
		}
		covLen, err := readCount(b, &off, MAX_COVENANT_DATA, "covenant_data_len")
		if err != nil {
			return nil, zero, 0, err
		}
		covData, err := readBytes(b, &off, covLen)
		if err != nil {
			return nil, zero, 0, err
		}
		outputs = append(outputs, TxOutput{
			Value:        value,
			CovenantType: covType,
			CovenantData: append([]byte(nil), covData...),
		})
	}

	locktime, err := readU32le(b, &off)
	if err != nil {
		return nil, zero, 0, err
	}
	coreEnd := off

	witnessCount, err := readCount(b, &off, MAX_WITNESS_ITEMS, "witness_count")
	if err != nil {
		return nil, zero, 0, err
	}
	witnessStart := off
	witness := make([]WitnessItem, 0, witnessCount)
	for i := 0; i < witnessCount; i++ {
		suiteID, err := readU8(b, &off)
		if err != nil {
			return nil, zero, 0, err
		}
		pubLen, err := readCount(b, &off, math.MaxInt32, "pubkey_length")
		if err != nil {
			return nil, zero, 0, err
		}
		pubkey, err := readBytes(b, &off, pubLen)
		if err != nil {
			return nil, zero, 0, err
		}
		sigLen, err := readCount(b, &off, math.MaxInt32, "sig_length")
		if err != nil {
			return nil, zero, 0, err
		}
		sig, err := readBytes(b, &off, sigLen)
		if err != nil {
			return nil, zero, 0, err
		}
		if off-witnessStart > MAX_WITNESS_BYTES {
			return nil, zero, 0, txerr(TX_ERR_PARSE, "witness bytes overflow")
		}
		witness = append(witness, WitnessItem{
			SuiteID:   suiteID,
			Pubkey:    append([]byte(nil), pubkey...),
			Signature: append([]byte(nil), sig...),
		})
	}

	daLen, err := readCount(b, &off, MAX_DA_PAYLOAD_BYTES, "da_payload_len")
	if err != nil {
		return nil, zero, 0, err
	}
	daPayload, err := readBytes(b, &off, daLen)
	if err != nil {
		return nil, zero, 0, err
	}

	tx := &Tx{
		Version:   version,
		TxKind:    txKind,
		TxNonce:   txNonce,
		Inputs:    inputs,
		Outputs:   outputs,
		Locktime:  locktime,
		Witness:   witness,
		DaPayload: append([]byte(nil), daPayload...),
	}
	if len(daPayload) == 0 {
		tx.DaPayload = nil
	}
	if len(witness) == 0 {
		tx.Witness = nil
	}
	return tx, sha3_256(b[:coreEnd]), off, nil
}

// ParseTxBytes requires b to hold exactly one transaction.
func ParseTxBytes(b []byte) (*Tx, error) {
	tx, _, consumed, err := ParseTx(b)
	if err != nil {
		return nil, err
	}
	if consumed != len(b) {
		return nil, txerr(TX_ERR_PARSE, "trailing bytes after tx")
	}
	return tx, nil
}

func readCount(b []byte, off *int, max uint64, name string) (int, error) {
	n, err := readCompactSize(b, off)
	if err != nil {
		return 0, err
	}
	if n > max {
		return 0, txerr(TX_ERR_PARSE, name+" overflow")
	}
	// #nosec G115 -- n is bounded by max, which fits int.
	return int(n), nil
}
