// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package sharedarea implements C1: the header layout, attach/detach,
// and generational rebuild-and-swap protocol shared by every mapped
// file under fifodir (FSA, FRA, MSA, JID, DNB, the file-mask
// dictionary). It is grounded on the debounced, atomic-rename state
// persistence in the teacher's disk/state manager, generalized from a
// single JSON blob to a versioned, binary, multi-generation area.
package sharedarea

import (
	"encoding/binary"

	"github.com/stratastor/afd/internal/constants"
)

// Header is the fixed AFD_WORD_OFFSET prefix of every mapped file
// (spec.md §3, §6): a 32-bit entry count, 3 reserved bytes, a 1-byte
// structure version, and 1 byte of feature-flag bits.
type Header struct {
	Count    int32
	Reserved [3]byte
	Version  uint8
	Flags    uint8
}

// HeaderSize is the on-disk size of Header and must equal
// constants.AfdWordOffset.
const HeaderSize = 9

func init() {
	if HeaderSize != constants.AfdWordOffset {
		panic("sharedarea: HeaderSize does not match constants.AfdWordOffset")
	}
}

// byteOrder is used for every shared-area encode/decode. AFD processes
// on one host always share endianness, so this only needs to be stable
// across a single daemon's lifetime, not portable across architectures.
var byteOrder = binary.LittleEndian

// Stale is the sentinel written into Header.Count to mark a mapping
// superseded by a swap (spec.md §3: "A sentinel value STALE in the
// count signals readers that this mapping is superseded").
const Stale int32 = constants.StaleGeneration

func (h Header) marshal() [HeaderSize]byte {
	var buf [HeaderSize]byte
	byteOrder.PutUint32(buf[0:4], uint32(h.Count))
	copy(buf[4:7], h.Reserved[:])
	buf[7] = h.Version
	buf[8] = h.Flags
	return buf
}

func unmarshalHeader(buf []byte) Header {
	var h Header
	h.Count = int32(byteOrder.Uint32(buf[0:4]))
	copy(h.Reserved[:], buf[4:7])
	h.Version = buf[7]
	h.Flags = buf[8]
	return h
}
