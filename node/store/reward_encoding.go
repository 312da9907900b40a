package store

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"

	"smartrewards.dev/node/consensus"
)

// Keys are big-endian so bbolt cursors iterate rounds in numeric order.
func encodeRoundKey(number uint64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, number)
	return out
}

func decodeRoundKey(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("round key: expected 8 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// Layout:
// number u64le | end_block_height u64le | eligible u64le | disqualified u64le
func encodeRound(r consensus.RewardRound) []byte {
	out := make([]byte, 0, 32)
	out = consensus.AppendU64le(out, r.Number)
	out = consensus.AppendU64le(out, r.EndBlockHeight)
	out = consensus.AppendU64le(out, r.EligibleEntries)
	out = consensus.AppendU64le(out, r.DisqualifiedEntries)
	return out
}

func decodeRound(b []byte) (consensus.RewardRound, error) {
	if len(b) != 32 {
		return consensus.RewardRound{}, fmt.Errorf("round: expected 32 bytes, got %d", len(b))
	}
	return consensus.RewardRound{
		Number:              binary.LittleEndian.Uint64(b[0:8]),
		EndBlockHeight:      binary.LittleEndian.Uint64(b[8:16]),
		EligibleEntries:     binary.LittleEndian.Uint64(b[16:24]),
		DisqualifiedEntries: binary.LittleEndian.Uint64(b[24:32]),
	}, nil
}

// Layout:
// count CompactSize | count * (reward u64le | covenant_type u16le | covenant_data_len CompactSize | covenant_data)
//
// This is a persistence format, not a consensus wire format.
func encodePayeeList(list consensus.RewardPayeeList) []byte {
	out := consensus.AppendCompactSize(nil, uint64(len(list)))
	for _, p := range list {
		out = consensus.AppendU64le(out, p.Reward)
		out = append(out, p.Destination.Bytes()...)
	}
	return out
}

func decodePayeeList(b []byte) (consensus.RewardPayeeList, error) {
	count, used, err := consensus.DecodeCompactSize(b)
	if err != nil {
		return nil, fmt.Errorf("payees: %w", err)
	}
	off := used
	// Each entry takes at least 11 bytes.
	if count > uint64(len(b)-off)/11 {
		return nil, fmt.Errorf("payees: count %d exceeds payload", count)
	}
	out := make(consensus.RewardPayeeList, 0, count)
	for i := uint64(0); i < count; i++ {
		if len(b)-off < 10 {
			return nil, fmt.Errorf("payees: truncated entry %d", i)
		}
		reward := binary.LittleEndian.Uint64(b[off : off+8])
		covType := binary.LittleEndian.Uint16(b[off+8 : off+10])
		off += 10
		dataLen, used, err := consensus.DecodeCompactSize(b[off:])
		if err != nil {
			return nil, fmt.Errorf("payees: entry %d: %w", i, err)
		}
		off += used
		if dataLen > uint64(len(b)-off) {
			return nil, fmt.Errorf("payees: entry %d: covenant_data truncated", i)
		}
		end := off + int(dataLen) // #nosec G115 -- bounded by len(b) above.
		out = append(out, consensus.RewardPayee{
			Destination: consensus.Destination{
				CovenantType: covType,
				CovenantData: append([]byte(nil), b[off:end]...),
			},
			Reward: reward,
		})
		off = end
	}
	if off != len(b) {
		return nil, fmt.Errorf("payees: %d trailing bytes", len(b)-off)
	}
	return out, nil
}

// PayeeListDigest commits to the sorted payee list of a round.
func PayeeListDigest(list consensus.RewardPayeeList) [32]byte {
	return sha3.Sum256(encodePayeeList(list.Sorted()))
}
