package codec

import (
	"encoding/binary"

	"maestro/internal/schema"
)

const CycleResultPayloadSize = 40

// EncodeCycleResult serializes a cycle summary into a fixed-size payload.
func EncodeCycleResult(dst []byte, cr schema.CycleResult) []byte {
	if cap(dst) < CycleResultPayloadSize {
		dst = make([]byte, CycleResultPayloadSize)
	} else {
		dst = dst[:CycleResultPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], cr.Cycle)
	binary.LittleEndian.PutUint16(dst[8:10], cr.StagesRun)
	binary.LittleEndian.PutUint16(dst[10:12], cr.Flags)
	binary.LittleEndian.PutUint16(dst[12:14], cr.Executed)
	binary.LittleEndian.PutUint16(dst[14:16], cr.Filled)
	binary.LittleEndian.PutUint32(dst[16:20], cr.Rejected)
	binary.LittleEndian.PutUint32(dst[20:24], cr.Reserved)
	binary.LittleEndian.PutUint64(dst[24:32], uint64(cr.Notional))
	binary.LittleEndian.PutUint64(dst[32:40], uint64(cr.ElapsedMicros))

	return dst
}

// DecodeCycleResult parses a fixed-size cycle summary payload.
func DecodeCycleResult(src []byte) (schema.CycleResult, bool) {
	if len(src) < CycleResultPayloadSize {
		return schema.CycleResult{}, false
	}
	return schema.CycleResult{
		Cycle:         binary.LittleEndian.Uint64(src[0:8]),
		StagesRun:     binary.LittleEndian.Uint16(src[8:10]),
		Flags:         binary.LittleEndian.Uint16(src[10:12]),
		Executed:      binary.LittleEndian.Uint16(src[12:14]),
		Filled:        binary.LittleEndian.Uint16(src[14:16]),
		Rejected:      binary.LittleEndian.Uint32(src[16:20]),
		Reserved:      binary.LittleEndian.Uint32(src[20:24]),
		Notional:      schema.Notional(int64(binary.LittleEndian.Uint64(src[24:32]))),
		ElapsedMicros: int64(binary.LittleEndian.Uint64(src[32:40])),
	}, true
}
