package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/banshee-data/bencher/internal/sweep"
)

// FormatVersion is the version of the entry encoding and fingerprint
// layout. Bumping it orphans every stored entry.
const FormatVersion = 2

// Fingerprint identifies one unit of work: a function identity, a point,
// the const assignment and a repeat index.
type Fingerprint struct {
	// Function is the identity prefix shared by every entry of one function
	// version. InvalidateFunction deletes by this prefix.
	Function string
	// Digest hashes the rest of the unit of work.
	Digest string
}

// String returns the store key.
func (f Fingerprint) String() string { return f.Function + "/" + f.Digest }

// FunctionID derives the identity prefix of a benchmark version. A non-empty
// run tag yields a separate identity so tagged runs never share entries.
func FunctionID(name, version, runTag string) string {
	d := xxhash.New()
	_, _ = d.WriteString(name)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(version)
	if runTag != "" {
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(runTag)
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// NewFingerprint fingerprints the evaluation of point at repeat under the
// function identity fnID.
func NewFingerprint(fnID string, point sweep.Point, consts map[string]interface{}, repeat int) Fingerprint {
	h := sha256.New()
	writeField(h, strconv.Itoa(FormatVersion))
	writeField(h, point.Key())
	writeField(h, sweep.ConstKey(consts))
	writeField(h, strconv.Itoa(repeat))
	return Fingerprint{Function: fnID, Digest: hex.EncodeToString(h.Sum(nil))}
}

// writeField length-prefixes s so that adjacent fields cannot run together.
func writeField(h hash.Hash, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	h.Write(n[:])
	h.Write([]byte(s))
}
