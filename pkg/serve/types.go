package serve

import (
	"encoding/json"

	"github.com/praetorian-inc/regext/pkg/scanner"
	"github.com/praetorian-inc/regext/pkg/types"
)

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"` // "match" | "scan" | "scan_batch" | "close"
	Payload json.RawMessage `json:"payload"`
}

// MatchPayload is the payload for "match" requests: one operation of a
// pattern over a subject.
type MatchPayload struct {
	Pattern     string `json:"pattern"`
	Flags       string `json:"flags"`
	Subject     string `json:"subject"`
	Op          string `json:"op"`                    // see the Op constants; default OpFindAll
	Replacement string `json:"replacement,omitempty"` // template for OpReplace and OpReplaceFirst
}

// Match operations.
const (
	OpFindAll      = "find_all"
	OpTest         = "test"
	OpExtract      = "extract"
	OpGroups       = "groups"
	OpCount        = "count"
	OpLast         = "last"
	OpReplace      = "replace"
	OpReplaceFirst = "replace_first"
)

// MatchResult is the data of a "match" response. Only the field of the
// requested operation is set.
type MatchResult struct {
	Op      string          `json:"op"`
	Matches []*types.Match  `json:"matches,omitempty"`
	Matched *bool           `json:"matched,omitempty"`
	Texts   []string        `json:"texts,omitempty"`
	Groups  [][]types.Group `json:"groups,omitempty"`
	Count   *int            `json:"count,omitempty"`
	Last    *types.Match    `json:"last,omitempty"`
	Output  *string         `json:"output,omitempty"`
}

// ScanPayload is the payload for "scan" requests
type ScanPayload struct {
	Content string `json:"content"`
	Path    string `json:"path"`
}

// ScanBatchPayload is the payload for "scan_batch" requests
type ScanBatchPayload struct {
	Items []ScanPayload `json:"items"`
}

// ScanResult is the data of a "scan" response and of each "scan_batch" item.
type ScanResult struct {
	Path     string                `json:"path"`
	BlobID   types.BlobID          `json:"blob_id"`
	Findings []*types.Finding      `json:"findings"`
	Summary  scanner.ResultSummary `json:"summary"`
	Error    string                `json:"error,omitempty"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" | "match" | "scan" | "scan_batch" | "decode" | request type on error
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version string `json:"version"`
	Rules   int    `json:"rules"`
}
