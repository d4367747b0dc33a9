package iso9660

import (
	"encoding/binary"
)

// Rock Ridge / SUSP attaches a System Use area to each directory record. Every entry
// shares the SUSP envelope: a 2-byte signature, a 1-byte length (including the
// envelope), and a 1-byte version.

func suspEntry(sig [2]byte, version byte, payload []byte) []byte {
	length := byte(4 + len(payload))
	buf := make([]byte, length)
	buf[0], buf[1] = sig[0], sig[1]
	buf[2] = length
	buf[3] = version
	copy(buf[4:], payload)
	return buf
}

// rrContinuationBudget is the inline SUSP byte budget: the fixed DR part (33) plus a
// worst-case identifier (~31 bytes for ECMA-119 level 2/3) leaves roughly this much
// room before the 255-byte record ceiling.
const rrContinuationBudget = 180

// estimateRockRidgeLen returns a conservative upper bound on the inline SUSP bytes a
// node will need, used by the layout planner before continuation-area packing is
// finalized.
func estimateRockRidgeLen(n *node) int {
	if n.rrInline != nil || n.rrContinuation != nil {
		return len(n.rrInline)
	}
	// RR(5) + NM(4+len) + PX(36) + TF(5+3*8) + PN(20 if device) + SL(if symlink,
	// computed exactly since the target is already known), capped at the inline budget
	// plus CE(28). SP is not counted here; the root's self record is sized from its
	// cached entries above.
	nmLen := 4 + len(n.name)
	total := 5 + nmLen + 36 + 5 + 8*3
	if isDeviceNode(n.mode) {
		total += 20
	}
	if n.symlink != "" {
		total += 4 + len(buildSLPayload(n.symlink))
	}
	if total > rrContinuationBudget {
		total = rrContinuationBudget + 28 // inline part + CE pointer
	}
	return total
}

// computeRockRidgeEntries builds the full set of SUSP entries for n (RR flags, NM, PX,
// TF, and SP/PN/SL where applicable) and splits them into an inline portion and, if the
// inline portion would overflow rrContinuationBudget, a continuation portion referenced
// by a CE entry. Results are cached on the node so layout and writing agree.
func computeRockRidgeEntries(n *node, opts *FormatOptions, isRootSelfRecord bool) {
	if n.rrInline != nil || n.rrContinuation != nil {
		return
	}

	var rrFlags byte
	var entries [][]byte

	if isRootSelfRecord {
		entries = append(entries, suspEntry([2]byte{'S', 'P'}, 1, []byte{0xBE, 0xEF, 0x00}))
	}

	nmPayload := []byte(n.name)
	nmFlags := byte(0)
	entries = append(entries, suspEntry([2]byte{'N', 'M'}, 1, append([]byte{nmFlags}, nmPayload...)))
	rrFlags |= 0x04 // NM present

	px := make([]byte, 32)
	mode := n.mode
	if mode == 0 {
		if n.isDir {
			mode = 0o40755
		} else {
			mode = 0o100644
		}
	}
	binary.LittleEndian.PutUint32(px[0:4], mode)
	binary.BigEndian.PutUint32(px[4:8], mode)
	nlink := uint32(1)
	binary.LittleEndian.PutUint32(px[8:12], nlink)
	binary.BigEndian.PutUint32(px[12:16], nlink)
	binary.LittleEndian.PutUint32(px[16:20], n.uid)
	binary.BigEndian.PutUint32(px[20:24], n.uid)
	binary.LittleEndian.PutUint32(px[24:28], n.gid)
	binary.BigEndian.PutUint32(px[28:32], n.gid)
	entries = append(entries, suspEntry([2]byte{'P', 'X'}, 1, px))
	rrFlags |= 0x01

	tf := make([]byte, 0, 1+3*7)
	tfFlags := byte(0x02 | 0x04) // modify + access (we only have one timestamp)
	tf = append(tf, tfFlags)
	recTime := formatRecordingTime(n.modTime)
	tf = append(tf, recTime[:]...)
	tf = append(tf, recTime[:]...)
	entries = append(entries, suspEntry([2]byte{'T', 'F'}, 1, tf))
	rrFlags |= 0x80

	if n.symlink != "" {
		sl := buildSLPayload(n.symlink)
		entries = append(entries, suspEntry([2]byte{'S', 'L'}, 1, sl))
		rrFlags |= 0x08
	}

	if isDeviceNode(mode) {
		pn := make([]byte, 16)
		bothU32(pn[0:8], 0) // Dev_t High: our device numbers always fit in the low word
		bothU32(pn[8:16], (n.deviceMajor<<16)|(n.deviceMinor&0xFFFF))
		entries = append(entries, suspEntry([2]byte{'P', 'N'}, 1, pn))
		rrFlags |= 0x20
	}

	rrPayload := []byte{rrFlags}
	rrBytes := suspEntry([2]byte{'R', 'R'}, 1, rrPayload)
	all := append([][]byte{rrBytes}, entries...)

	var inline, overflow [][]byte
	size := 0
	for _, e := range all {
		if size+len(e) <= rrContinuationBudget {
			inline = append(inline, e)
			size += len(e)
		} else {
			overflow = append(overflow, e)
		}
	}

	n.rrInline = flattenSUSP(inline)
	if len(overflow) > 0 {
		n.rrContinuation = flattenSUSP(overflow)
	} else {
		n.rrContinuation = []byte{}
	}
}

// isDeviceNode reports whether mode's POSIX file-type bits mark a character or block
// device, the case Rock Ridge's PN entry exists to describe.
func isDeviceNode(mode uint32) bool {
	t := mode & modeTypeMask
	return t == modeTypeChar || t == modeTypeBlock
}

func flattenSUSP(entries [][]byte) []byte {
	var out []byte
	for _, e := range entries {
		out = append(out, e...)
	}
	return out
}

// buildSLPayload encodes a symlink target as SUSP SL component records: flags byte
// followed by (component-flags, component-length, component-bytes) triples, one per
// path segment, with "." and ".." mapped to their reserved component-flag bits.
func buildSLPayload(target string) []byte {
	out := []byte{0x00} // SL flags: no continuation
	segs := splitPathSegments(target)
	for _, seg := range segs {
		switch seg {
		case ".":
			out = append(out, 0x02, 0x00)
		case "..":
			out = append(out, 0x04, 0x00)
		case "":
			out = append(out, 0x08, 0x00) // root
		default:
			out = append(out, 0x00, byte(len(seg)))
			out = append(out, []byte(seg)...)
		}
	}
	return out
}

func splitPathSegments(p string) []string {
	var segs []string
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == '/' {
			if i > start {
				segs = append(segs, p[start:i])
			}
			start = i + 1
		}
	}
	return segs
}

// buildRockRidgeEntries returns the SUSP bytes that belong inline in the directory
// record for n, including a CE entry (pointing at the continuation extent) when n's
// full SUSP payload did not fit. isRootSelfRecord requests the once-only SP entry.
func buildRockRidgeEntries(n *node, opts *FormatOptions, isRootSelfRecord bool) []byte {
	computeRockRidgeEntries(n, opts, isRootSelfRecord)
	if len(n.rrContinuation) == 0 {
		return n.rrInline
	}
	ce := make([]byte, 24)
	bothU32(ce[0:8], n.rrContinuationLBA)
	bothU32(ce[8:16], n.rrContinuationOffset)
	bothU32(ce[16:24], uint32(len(n.rrContinuation)))
	ceEntry := suspEntry([2]byte{'C', 'E'}, 1, ce)
	return append(append([]byte{}, n.rrInline...), ceEntry...)
}

func bothU32(buf []byte, v uint32) {
	BothEndianUint32(v).Put(buf)
}
