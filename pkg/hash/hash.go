package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// OwnerHash produces a short, irreversible hash prefix of an owner
// identifier for log correlation without writing raw IDs to logs.
func OwnerHash(owner string) string {
	return SHA256Hex(owner)[:12]
}

// SnapshotFingerprint derives a stable identity for a channel snapshot from
// its channel ID and the sorted sets of video and comment IDs. Two snapshots
// with the same fingerprint must produce byte-identical metric bundles.
func SnapshotFingerprint(channelID string, videoIDs, commentIDs []string) string {
	vids := append([]string(nil), videoIDs...)
	cids := append([]string(nil), commentIDs...)
	sort.Strings(vids)
	sort.Strings(cids)

	var b strings.Builder
	b.WriteString(channelID)
	b.WriteByte('\n')
	b.WriteString(strings.Join(vids, ","))
	b.WriteByte('\n')
	b.WriteString(strings.Join(cids, ","))
	return SHA256Hex(b.String())[:16]
}
