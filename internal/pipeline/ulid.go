package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Extraction record IDs are ULIDs: 48-bit millisecond timestamp, then 80 bits
// whose first 16 carry a per-millisecond sequence, Crockford Base32 encoded.

var (
	ulidMu  sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

func generateULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	ts := uint64(time.Now().UnixMilli())
	if ts == lastTS {
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}

	var b [16]byte
	var tsBytes [8]byte
	binary.BigEndian.PutUint64(tsBytes[:], ts)
	copy(b[:6], tsBytes[2:])
	rand.Read(b[8:])
	binary.BigEndian.PutUint16(b[6:8], lastSeq)

	return encode(b)
}

// encode writes the 128 bits as 26 five-bit groups, most significant first,
// with two implicit zero bits in front.
func encode(b [16]byte) string {
	var out [26]byte
	for i := range out {
		var v byte
		for p := i*5 - 2; p < i*5+3; p++ {
			v <<= 1
			if p >= 0 {
				v |= (b[p/8] >> (7 - p%8)) & 1
			}
		}
		out[i] = crockford[v]
	}
	return string(out[:])
}
