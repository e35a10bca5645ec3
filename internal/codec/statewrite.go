package codec

import (
	"encoding/binary"

	"maestro/internal/schema"
)

const StateWritePayloadSize = 24

// EncodeStateWrite serializes a state write record into a fixed-size payload.
func EncodeStateWrite(dst []byte, sw schema.StateWrite) []byte {
	if cap(dst) < StateWritePayloadSize {
		dst = make([]byte, StateWritePayloadSize)
	} else {
		dst = dst[:StateWritePayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], sw.Cycle)
	dst[8] = uint8(sw.Kind)
	dst[9] = uint8(sw.Outcome)
	binary.LittleEndian.PutUint16(dst[10:12], sw.Flags)
	binary.LittleEndian.PutUint32(dst[12:16], sw.Reserved)
	binary.LittleEndian.PutUint64(dst[16:24], uint64(sw.ElapsedMicros))

	return dst
}

// DecodeStateWrite parses a fixed-size state write payload.
func DecodeStateWrite(src []byte) (schema.StateWrite, bool) {
	if len(src) < StateWritePayloadSize {
		return schema.StateWrite{}, false
	}
	return schema.StateWrite{
		Cycle:         binary.LittleEndian.Uint64(src[0:8]),
		Kind:          schema.StateWriteKind(src[8]),
		Outcome:       schema.StateWriteOutcome(src[9]),
		Flags:         binary.LittleEndian.Uint16(src[10:12]),
		Reserved:      binary.LittleEndian.Uint32(src[12:16]),
		ElapsedMicros: int64(binary.LittleEndian.Uint64(src[16:24])),
	}, true
}
