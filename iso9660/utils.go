package iso9660

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
	"unicode/utf16"
)

// formatTimestamp creates an ISO9660 17-byte timestamp string (ECMA-119 Section 8.4.26.1).
// If t is zero, returns a "not specified" timestamp (16 zeros + zero offset byte).
func formatTimestamp(t time.Time) []byte {
	tsBytes := make([]byte, 17)
	if t.IsZero() {
		for i := 0; i < 16; i++ {
			tsBytes[i] = '0'
		}
		return tsBytes
	}
	timestampStr := fmt.Sprintf("%04d%02d%02d%02d%02d%02d00",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	copy(tsBytes, []byte(timestampStr))
	tsBytes[16] = 0
	return tsBytes
}

// formatRecordingTime creates the 7-byte "recording date and time" used in directory
// records (ECMA-119 Section 9.1.5) - a more compact encoding than the 17-byte VD form.
func formatRecordingTime(t time.Time) [7]byte {
	var out [7]byte
	if t.IsZero() {
		return out
	}
	out[0] = byte(t.Year() - 1900)
	out[1] = byte(t.Month())
	out[2] = byte(t.Day())
	out[3] = byte(t.Hour())
	out[4] = byte(t.Minute())
	out[5] = byte(t.Second())
	out[6] = 0 // GMT offset
	return out
}

// encodeUTF16BE encodes a Go string to UCS-2 Big Endian bytes.
func encodeUTF16BE(s string) []byte {
	uint16s := utf16.Encode([]rune(s))
	buf := new(bytes.Buffer)
	for _, rVal := range uint16s {
		_ = binary.Write(buf, binary.BigEndian, rVal)
	}
	return buf.Bytes()
}

// padString pads/truncates a string with spaces for fixed-length ISO string fields
// (d-characters or a-characters, see ECMA-119).
func padString(s string, length int) []byte {
	b := make([]byte, length)
	for i := range b {
		b[i] = ' '
	}
	bytesToCopy := len(s)
	if bytesToCopy > length {
		bytesToCopy = length
	}
	copy(b, s[:bytesToCopy])
	return b
}

// padUTF16StringBE encodes a string to UCS-2BE and pads/truncates to fit a field
// specified in characters.
func padUTF16StringBE(s string, numCharsInField int) []byte {
	targetByteLength := numCharsInField * 2
	resultBytes := make([]byte, targetByteLength)
	encoded := encodeUTF16BE(s)
	n := len(encoded)
	if n > targetByteLength {
		n = targetByteLength
	}
	copy(resultBytes, encoded[:n])
	return resultBytes
}

// padUTF16StringBEToFixedBytes pads/truncates a UTF-16BE string for a field of fixed
// total byte length, respecting a maximum character count within that byte length
// (used for the Joliet Copyright/Abstract/Bibliographic File Identifier fields).
func padUTF16StringBEToFixedBytes(s string, maxCharsInString int, totalBytesInField int) []byte {
	resultBytes := make([]byte, totalBytesInField)
	encoded := encodeUTF16BE(s)
	maxBytes := maxCharsInString * 2
	if maxBytes > totalBytesInField {
		maxBytes = totalBytesInField
	}
	if len(encoded) > maxBytes {
		encoded = encoded[:maxBytes]
	}
	copy(resultBytes, encoded)
	return resultBytes
}

// emptyTimestamp represents the volume descriptor "not specified" timestamp fields.
var emptyTimestamp time.Time

func writeLE32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeBE32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeLEUint32At(dst []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(dst[offset:offset+4], v)
}
