package types

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// Finding is one rule match inside one scanned blob.
type Finding struct {
	ID       string   `json:"id"`
	BlobID   BlobID   `json:"blob_id"`
	RuleID   string   `json:"rule_id"`
	RuleName string   `json:"rule_name"`
	Path     string   `json:"path"`
	Location Location `json:"location"`
	Text     string   `json:"text"`
	Groups   []Group  `json:"groups,omitempty"`
}

// ComputeFindingID computes the content-based finding ID:
// SHA-1(rule_structural_id + '\0' + blob_id + '\0' + start + '\0' + end).
func ComputeFindingID(ruleStructuralID string, blobID BlobID, span OffsetSpan) string {
	h := sha1.New()
	h.Write([]byte(ruleStructuralID))
	h.Write([]byte{0})
	h.Write(blobID[:])
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(span.Start)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(span.End)))
	return hex.EncodeToString(h.Sum(nil))
}
