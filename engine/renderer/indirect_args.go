package renderer

import (
	"encoding/binary"
)

// IndirectArgsSize is the encoded size of IndirectArgs in bytes (5 × u32).
const IndirectArgsSize = 20

// IndirectArgs is the DrawIndexedIndirect argument block read by the GPU.
type IndirectArgs struct {
	IndexCount    uint32 // offset 0: number of indices per instance
	InstanceCount uint32 // offset 4: number of instances drawn
	FirstIndex    uint32 // offset 8: offset into the index buffer
	BaseVertex    int32  // offset 12: added to each index value (signed)
	FirstInstance uint32 // offset 16: first instance ID
}

// MarshalTo encodes the arguments little-endian into buf, which must be at least IndirectArgsSize bytes.
//
// Parameters:
//   - buf: the destination
func (a *IndirectArgs) MarshalTo(buf []byte) {
	_ = buf[IndirectArgsSize-1]
	binary.LittleEndian.PutUint32(buf[0:4], a.IndexCount)
	binary.LittleEndian.PutUint32(buf[4:8], a.InstanceCount)
	binary.LittleEndian.PutUint32(buf[8:12], a.FirstIndex)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(a.BaseVertex))
	binary.LittleEndian.PutUint32(buf[16:20], a.FirstInstance)
}

// UnmarshalIndirectArgs decodes an argument block written by MarshalTo.
//
// Parameters:
//   - buf: at least IndirectArgsSize bytes
//
// Returns:
//   - IndirectArgs: the decoded arguments
func UnmarshalIndirectArgs(buf []byte) IndirectArgs {
	_ = buf[IndirectArgsSize-1]
	return IndirectArgs{
		IndexCount:    binary.LittleEndian.Uint32(buf[0:4]),
		InstanceCount: binary.LittleEndian.Uint32(buf[4:8]),
		FirstIndex:    binary.LittleEndian.Uint32(buf[8:12]),
		BaseVertex:    int32(binary.LittleEndian.Uint32(buf[12:16])),
		FirstInstance: binary.LittleEndian.Uint32(buf[16:20]),
	}
}
