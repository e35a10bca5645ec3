package codec

import (
	"encoding/binary"

	"maestro/internal/schema"
)

const CycleFailurePayloadSize = 16 + schema.MaxFailureReason

// EncodeCycleFailure serializes a cycle failure into a fixed-size payload.
func EncodeCycleFailure(dst []byte, cf schema.CycleFailure) []byte {
	if cap(dst) < CycleFailurePayloadSize {
		dst = make([]byte, CycleFailurePayloadSize)
	} else {
		dst = dst[:CycleFailurePayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], cf.Cycle)
	binary.LittleEndian.PutUint16(dst[8:10], uint16(cf.Stage))
	binary.LittleEndian.PutUint16(dst[10:12], cf.Flags)
	binary.LittleEndian.PutUint16(dst[12:14], cf.ReasonLen)
	binary.LittleEndian.PutUint16(dst[14:16], cf.Reserved)
	copy(dst[16:CycleFailurePayloadSize], cf.Reason[:])

	return dst
}

// DecodeCycleFailure parses a fixed-size cycle failure payload.
func DecodeCycleFailure(src []byte) (schema.CycleFailure, bool) {
	if len(src) < CycleFailurePayloadSize {
		return schema.CycleFailure{}, false
	}
	cf := schema.CycleFailure{
		Cycle:     binary.LittleEndian.Uint64(src[0:8]),
		Stage:     schema.Stage(binary.LittleEndian.Uint16(src[8:10])),
		Flags:     binary.LittleEndian.Uint16(src[10:12]),
		ReasonLen: binary.LittleEndian.Uint16(src[12:14]),
		Reserved:  binary.LittleEndian.Uint16(src[14:16]),
	}
	copy(cf.Reason[:], src[16:CycleFailurePayloadSize])
	if cf.ReasonLen > schema.MaxFailureReason {
		cf.ReasonLen = schema.MaxFailureReason
	}
	return cf, true
}
