package codec

import (
	"encoding/binary"

	"maestro/internal/schema"
)

const StageResultPayloadSize = 24

// EncodeStageResult serializes a stage result into a fixed-size payload.
func EncodeStageResult(dst []byte, sr schema.StageResult) []byte {
	if cap(dst) < StageResultPayloadSize {
		dst = make([]byte, StageResultPayloadSize)
	} else {
		dst = dst[:StageResultPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], sr.Cycle)
	binary.LittleEndian.PutUint16(dst[8:10], uint16(sr.Stage))
	binary.LittleEndian.PutUint16(dst[10:12], sr.Flags)
	binary.LittleEndian.PutUint32(dst[12:16], sr.Items)
	binary.LittleEndian.PutUint64(dst[16:24], uint64(sr.ElapsedMicros))

	return dst
}

// DecodeStageResult parses a fixed-size stage result payload.
func DecodeStageResult(src []byte) (schema.StageResult, bool) {
	if len(src) < StageResultPayloadSize {
		return schema.StageResult{}, false
	}
	return schema.StageResult{
		Cycle:         binary.LittleEndian.Uint64(src[0:8]),
		Stage:         schema.Stage(binary.LittleEndian.Uint16(src[8:10])),
		Flags:         binary.LittleEndian.Uint16(src[10:12]),
		Items:         binary.LittleEndian.Uint32(src[12:16]),
		ElapsedMicros: int64(binary.LittleEndian.Uint64(src[16:24])),
	}, true
}
