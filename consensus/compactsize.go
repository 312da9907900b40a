package consensus

import (
	"encoding/binary"
	"fmt"
)

func AppendCompactSize(dst []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(dst, byte(n))
	case n <= 0xffff:
		dst = append(dst, 0xfd)
		return AppendU16le(dst, uint16(n))
	case n <= 0xffffffff:
		dst = append(dst, 0xfe)
		return AppendU32le(dst, uint32(n))
	default:
		dst = append(dst, 0xff)
		return AppendU64le(dst, n)
	}
}

// DecodeCompactSize returns the value and the number of bytes consumed.
// Non-minimal encodings are rejected.
func DecodeCompactSize(b []byte) (uint64, int, error) {
	if len(b) < 1 {
		return 0, 0, fmt.Errorf("compactsize: empty")
	}
	switch tag := b[0]; {
	case tag < 0xfd:
		return uint64(tag), 1, nil
	case tag == 0xfd:
		if len(b) < 3 {
			return 0, 0, fmt.Errorf("compactsize: truncated u16")
		}
		n := uint64(binary.LittleEndian.Uint16(b[1:3]))
		if n < 0xfd {
			return 0, 0, fmt.Errorf("compactsize: non-minimal u16")
		}
		return n, 3, nil
	case tag == 0xfe:
		if len(b) < 5 {
			return 0, 0, fmt.Errorf("compactsize: truncated u32")
		}
		n := uint64(binary.LittleEndian.Uint32(b[1:5]))
		if n <= 0xffff {
			return 0, 0, fmt.Errorf("compactsize: non-minimal u32")
		}
		return n, 5, nil
	default:
		if len(b) < 9 {
			return 0, 0, fmt.Errorf("compactsize: truncated u64")
		}
		n := binary.LittleEndian.Uint64(b[1:9])
		if n <= 0xffffffff {
			return 0, 0, fmt.Errorf("compactsize: non-minimal u64")
		}
		return n, 9, nil
	}
}
