package codec

import (
	"encoding/binary"

	"maestro/internal/schema"
)

const CycleStartPayloadSize = 16

// EncodeCycleStart serializes a cycle start marker into a fixed-size payload.
func EncodeCycleStart(dst []byte, cs schema.CycleStart) []byte {
	if cap(dst) < CycleStartPayloadSize {
		dst = make([]byte, CycleStartPayloadSize)
	} else {
		dst = dst[:CycleStartPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], cs.Cycle)
	dst[8] = cs.Live
	dst[9] = cs.Flags
	copy(dst[10:16], cs.Reserved[:])

	return dst
}

// DecodeCycleStart parses a fixed-size cycle start payload.
func DecodeCycleStart(src []byte) (schema.CycleStart, bool) {
	if len(src) < CycleStartPayloadSize {
		return schema.CycleStart{}, false
	}
	cs := schema.CycleStart{
		Cycle: binary.LittleEndian.Uint64(src[0:8]),
		Live:  src[8],
		Flags: src[9],
	}
	copy(cs.Reserved[:], src[10:16])
	return cs, true
}
