// Package rpc exposes the admission gate over line-delimited JSON-RPC
// on stdin/stdout, for the workspace UI to drive programmatically.
package rpc

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/varlog/logsift/pkg/admission"
	"github.com/varlog/logsift/pkg/api"
	"github.com/varlog/logsift/pkg/policy"
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      *uint64         `json:"id,omitempty"`
}

type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      *uint64     `json:"id,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
	ErrCodePolicyConflict = -32000
	ErrCodeScanFailed     = -32001
)

type ClassifyParams struct {
	Path   string `json:"path"`
	Sample string `json:"sample,omitempty"` // base64 head sample
}

type ScanParams struct {
	Root string `json:"root"`
}

// Handler serves gate methods over a stdin/stdout pair.
type Handler struct {
	filter  *admission.Filter
	scanner *admission.Scanner
	store   *policy.Store
	stdin   io.Reader
	stdout  io.Writer
	mu      sync.Mutex // protects stdout writes
}

func NewHandler(filter *admission.Filter, scanner *admission.Scanner, store *policy.Store, stdin io.Reader, stdout io.Writer) *Handler {
	return &Handler{
		filter:  filter,
		scanner: scanner,
		store:   store,
		stdin:   stdin,
		stdout:  stdout,
	}
}

// Run reads requests line by line until stdin closes or ctx is done.
func (h *Handler) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(h.stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			h.writeError(nil, ErrCodeParse, "parse error")
			continue
		}
		h.dispatch(ctx, &req)
	}
	return scanner.Err()
}

func (h *Handler) dispatch(ctx context.Context, req *Request) {
	switch req.Method {
	case "classify":
		h.handleClassify(req)
	case "policy.get":
		h.writeResult(req.ID, h.store.Snapshot().Config())
	case "policy.update":
		h.handlePolicyUpdate(req)
	case "scan":
		h.handleScan(ctx, req)
	default:
		h.writeError(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (h *Handler) handleClassify(req *Request) {
	var params ClassifyParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Path == "" {
		h.writeError(req.ID, ErrCodeInvalidParams, "classify requires a path")
		return
	}

	sample, err := base64.StdEncoding.DecodeString(params.Sample)
	if err != nil {
		h.writeError(req.ID, ErrCodeInvalidParams, "sample must be base64")
		return
	}

	h.writeResult(req.ID, h.filter.Classify(params.Path, sample))
}

func (h *Handler) handlePolicyUpdate(req *Request) {
	var cfg api.PolicyConfig
	if err := json.Unmarshal(req.Params, &cfg); err != nil {
		h.writeError(req.ID, ErrCodeInvalidParams, "invalid policy config")
		return
	}
	if err := h.store.Update(cfg); err != nil {
		h.writeError(req.ID, ErrCodePolicyConflict, err.Error())
		return
	}
	h.writeResult(req.ID, h.store.Snapshot().Config())
}

func (h *Handler) handleScan(ctx context.Context, req *Request) {
	var params ScanParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Root == "" {
		h.writeError(req.ID, ErrCodeInvalidParams, "scan requires a root")
		return
	}

	report, err := h.scanner.Scan(ctx, params.Root)
	if err != nil {
		h.writeError(req.ID, ErrCodeScanFailed, err.Error())
		return
	}
	h.writeResult(req.ID, report)
}

func (h *Handler) writeResult(id *uint64, result interface{}) {
	h.write(Response{JSONRPC: "2.0", Result: result, ID: id})
}

func (h *Handler) writeError(id *uint64, code int, message string) {
	h.write(Response{JSONRPC: "2.0", Error: &Error{Code: code, Message: message}, ID: id})
}

func (h *Handler) write(resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.stdout.Write(append(data, '\n'))
}
