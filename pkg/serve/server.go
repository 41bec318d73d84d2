// Package serve runs regext as a long-lived NDJSON server: one JSON request
// per input line, one JSON response per output line.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/praetorian-inc/regext"
	"github.com/praetorian-inc/regext/pkg/scanner"
	"github.com/praetorian-inc/regext/pkg/types"
	"golang.org/x/sync/errgroup"
)

// Version is the server protocol version
const Version = "1.0.0"

// maxCachedPatterns bounds the compiled pattern cache.
const maxCachedPatterns = 256

// Server manages the streaming matcher and scanner
type Server struct {
	scanner     *scanner.Scanner
	patternOpts []regext.Option
	patterns    map[patternKey]*regext.Pattern
	encoder     *json.Encoder
	decoder     *json.Decoder
}

type patternKey struct {
	source string
	flags  string
}

// NewServer creates a new streaming server. sc serves scan requests and
// may be nil, in which case they are answered with an error.
func NewServer(sc *scanner.Scanner, in io.Reader, out io.Writer) *Server {
	return &Server{
		scanner:  sc,
		patterns: make(map[patternKey]*regext.Pattern),
		encoder:  json.NewEncoder(out),
		decoder:  json.NewDecoder(bufio.NewReader(in)),
	}
}

// SetPatternOptions sets the options "match" requests compile with.
func (s *Server) SetPatternOptions(opts ...regext.Option) {
	s.patternOpts = opts
	s.patterns = make(map[patternKey]*regext.Pattern)
}

// Run starts the server main loop
func (s *Server) Run(ctx context.Context) error {
	// Send ready signal
	s.sendReady()

	// Use buffered channels for incoming requests
	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Process requests until stdin closes or context cancels
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(req) {
						return nil
					}
				default:
					// No more pending requests
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(req Request) bool {
	switch req.Type {
	case "match":
		s.handleMatch(req.Payload)
	case "scan":
		s.handleScan(req.Payload)
	case "scan_batch":
		s.handleScanBatch(req.Payload)
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	ready := ReadyData{Version: Version}
	if s.scanner != nil {
		ready.Rules = len(s.scanner.Rules())
	}
	s.send("ready", ready)
}

func (s *Server) handleMatch(payload json.RawMessage) {
	var p MatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("match", err.Error())
		return
	}

	pattern, err := s.pattern(p.Pattern, p.Flags)
	if err != nil {
		s.sendError("match", err.Error())
		return
	}

	result, err := runOp(pattern, p)
	if err != nil {
		s.sendError("match", err.Error())
		return
	}
	s.send("match", result)
}

// pattern returns a fresh clone of the compiled pattern, compiling and
// caching it on first use.
func (s *Server) pattern(source, flags string) (*regext.Pattern, error) {
	key := patternKey{source: source, flags: flags}
	if p, ok := s.patterns[key]; ok {
		return p.Clone(), nil
	}

	p, err := regext.Compile(source, flags, s.patternOpts...)
	if err != nil {
		return nil, err
	}
	if len(s.patterns) >= maxCachedPatterns {
		s.patterns = make(map[patternKey]*regext.Pattern)
	}
	s.patterns[key] = p
	return p.Clone(), nil
}

// runOp applies one match operation.
func runOp(p *regext.Pattern, req MatchPayload) (*MatchResult, error) {
	op := req.Op
	if op == "" {
		op = OpFindAll
	}
	result := &MatchResult{Op: op}

	switch op {
	case OpFindAll:
		matches, err := p.FindAll(req.Subject)
		if err != nil && !errors.Is(err, regext.ErrNoMatch) {
			return nil, err
		}
		result.Matches = matches
	case OpTest:
		ok, err := p.SafeTest(req.Subject)
		if err != nil {
			return nil, err
		}
		result.Matched = &ok
	case OpExtract:
		texts, err := p.Extract(req.Subject)
		if err != nil {
			return nil, err
		}
		result.Texts = texts
	case OpGroups:
		groups, err := p.ExtractGroups(req.Subject)
		if err != nil {
			return nil, err
		}
		result.Groups = groups
	case OpCount:
		n, err := p.Count(req.Subject)
		if err != nil {
			return nil, err
		}
		result.Count = &n
	case OpLast:
		m, err := p.FindLast(req.Subject)
		if err != nil && !errors.Is(err, regext.ErrNoMatch) {
			return nil, err
		}
		result.Last = m
	case OpReplace, OpReplaceFirst:
		replace := p.ReplaceAll
		if op == OpReplaceFirst {
			replace = p.ReplaceFirst
		}
		out, err := replace(req.Subject, req.Replacement)
		if err != nil {
			return nil, err
		}
		result.Output = &out
	default:
		return nil, fmt.Errorf("unknown match op: %s", op)
	}

	return result, nil
}

func (s *Server) handleScan(payload json.RawMessage) {
	var p ScanPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("scan", err.Error())
		return
	}
	if s.scanner == nil {
		s.sendError("scan", "no rules loaded")
		return
	}

	result := s.scan(p)
	if result.Error != "" {
		s.sendError("scan", result.Error)
		return
	}
	s.send("scan", result)
}

func (s *Server) handleScanBatch(payload json.RawMessage) {
	var p ScanBatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("scan_batch", err.Error())
		return
	}
	if s.scanner == nil {
		s.sendError("scan_batch", "no rules loaded")
		return
	}

	// Items are scanned in parallel; per-item errors stay in their result.
	results := make([]*ScanResult, len(p.Items))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, item := range p.Items {
		g.Go(func() error {
			results[i] = s.scan(item)
			return nil
		})
	}
	g.Wait()

	s.send("scan_batch", results)
}

func (s *Server) scan(p ScanPayload) *ScanResult {
	content := []byte(p.Content)
	blobID := types.ComputeBlobID(content)
	result := &ScanResult{Path: p.Path, BlobID: blobID, Findings: []*types.Finding{}}

	scanned, err := s.scanner.Scan(content, blobID, p.Path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if scanned.Findings != nil {
		result.Findings = scanned.Findings
	}
	result.Summary = scanned.Summary
	return result
}

func (s *Server) send(respType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.sendError(respType, err.Error())
		return
	}
	s.encoder.Encode(Response{
		Success: true,
		Type:    respType,
		Data:    data,
	})
}

func (s *Server) sendError(reqType, msg string) {
	s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
	})
}
