package convert

import (
	"encoding/hex"
	"fmt"
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Checksum returns the CRC-32C of data as lowercase hex. Computed over the
// uncompressed columnar payload so a retried write of identical content is
// recognizable as already done.
func Checksum(data []byte) string {
	sum := crc32.Checksum(data, castagnoli)
	var buf [4]byte
	buf[0] = byte(sum >> 24)
	buf[1] = byte(sum >> 16)
	buf[2] = byte(sum >> 8)
	buf[3] = byte(sum)
	return hex.EncodeToString(buf[:])
}

// recordID derives a dead-letter identity from the stage, the element's
// position and the payload checksum. The checksum keeps IDs from separate
// inputs distinct, so entries in the durable store never overwrite each
// other across runs.
func recordID(stage string, index int, payload []byte) string {
	return fmt.Sprintf("%s-%d-%s", stage, index, Checksum(payload))
}
