package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/duanxinyuan/json-utils/internal/flatten"
	"github.com/duanxinyuan/json-utils/internal/formats"
	"github.com/duanxinyuan/json-utils/internal/jsonutil"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const defaultMaxBodyBytes = 1 << 20

// Handler exposes the JSON facade and the format codec over HTTP.
type Handler struct {
	codec        *formats.Codec
	values       *jsonutil.Util
	logger       *zap.Logger
	maxBodyBytes int64

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithMaxBodyBytes limits the size of request bodies. Non-positive values keep the default.
func WithMaxBodyBytes(limit int64) HandlerOption {
	return func(h *Handler) {
		if limit > 0 {
			h.maxBodyBytes = limit
		}
	}
}

// WithHandlerLogger sets the logger used for unexpected failures.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler constructs a Handler around codec.
func NewHandler(codec *formats.Codec, opts ...HandlerOption) *Handler {
	h := &Handler{
		codec:        codec,
		values:       jsonutil.New(jsonutil.Binding()),
		logger:       zap.NewNop(),
		maxBodyBytes: defaultMaxBodyBytes,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Engine:    h.codec.JSON().Engine().Name(),
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:  h.codec.JSON().IsJSON(req.Document),
		Engine: h.codec.JSON().Engine().Name(),
	})
}

func (h *Handler) handleFormat(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	out, err := h.codec.JSON().Format(req.Document)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{Document: out})
}

func (h *Handler) handleFlatten(w http.ResponseWriter, r *http.Request) {
	var req flattenRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	format, err := parseFormat(req.Format)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	tree, err := h.codec.Decode([]byte(req.Document), format)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	flat, err := h.codec.Flatten(tree)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flattenResponse{Entries: flat, Count: len(flat)})
}

func (h *Handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	from, err := parseFormat(req.From)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	to, err := parseFormat(req.To)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	out, err := h.codec.Convert([]byte(req.Document), from, to)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{Document: string(out), Format: string(to)})
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "key is required")
		return
	}

	util := h.codec.JSON()
	var (
		value any
		err   error
	)
	switch strings.ToLower(req.Type) {
	case "", "string":
		value, err = util.GetAsString(req.Document, req.Key)
	case "int":
		value, err = util.GetAsInt(req.Document, req.Key)
	case "float":
		value, err = util.GetAsFloat(req.Document, req.Key)
	case "bool":
		value, err = util.GetAsBool(req.Document, req.Key)
	default:
		writeError(w, http.StatusBadRequest, "Invalid request", fmt.Sprintf("unknown type %q", req.Type), "use one of string, int, float, bool")
		return
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Key: req.Key, Value: value})
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "key is required")
		return
	}

	util := h.codec.JSON()
	var (
		out string
		err error
	)
	switch strings.ToLower(req.Op) {
	case "add", "update":
		var value any
		if len(req.Value) > 0 {
			if err := h.values.FromBytes(req.Value, &value); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid request", "value is not valid JSON")
				return
			}
		}
		if strings.EqualFold(req.Op, "add") {
			out, err = util.Add(req.Document, req.Key, value)
		} else {
			out, err = util.Update(req.Document, req.Key, value)
		}
	case "remove":
		out, err = util.Remove(req.Document, req.Key)
	default:
		writeError(w, http.StatusBadRequest, "Invalid request", fmt.Sprintf("unknown op %q", req.Op), "use one of add, update, remove")
		return
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{Document: out})
}

// decodeRequest reads a size limited JSON body into dst and reports whether
// the handler should continue.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request too large", fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return false
	}
	return true
}

// writeDomainError maps facade and codec failures onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, jsonutil.ErrKeyNotFound):
		writeError(w, http.StatusNotFound, "Key not found", err.Error())
	case errors.Is(err, jsonutil.ErrNotObject),
		errors.Is(err, jsonutil.ErrTypeMismatch),
		errors.Is(err, flatten.ErrCycleDetected),
		errors.Is(err, flatten.ErrDepthExceeded):
		writeError(w, http.StatusUnprocessableEntity, "Unprocessable document", err.Error())
	case errors.Is(err, jsonutil.ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, "Invalid document", err.Error())
	case errors.Is(err, jsonutil.ErrUnsupportedValue),
		errors.Is(err, formats.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "Unsupported input", err.Error(), supportedFormatsHint())
	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeInternalError(w, err)
	}
}

func parseFormat(name string) (formats.Format, error) {
	if strings.TrimSpace(name) == "" {
		return formats.JSON, nil
	}
	return formats.ParseFormat(name)
}

func supportedFormatsHint() string {
	names := make([]string, 0, len(formats.Formats()))
	for _, f := range formats.Formats() {
		names = append(names, string(f))
	}
	return "supported formats: " + strings.Join(names, ", ")
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type documentRequest struct {
	Document string `json:"document"`
}

type flattenRequest struct {
	Document string `json:"document"`
	Format   string `json:"format"`
}

type convertRequest struct {
	Document string `json:"document"`
	From     string `json:"from"`
	To       string `json:"to"`
}

type queryRequest struct {
	Document string `json:"document"`
	Key      string `json:"key"`
	Type     string `json:"type"`
}

type editRequest struct {
	Document string          `json:"document"`
	Op       string          `json:"op"`
	Key      string          `json:"key"`
	Value    json.RawMessage `json:"value"`
}

type validateResponse struct {
	Valid  bool   `json:"valid"`
	Engine string `json:"engine"`
}

type documentResponse struct {
	Document string `json:"document"`
	Format   string `json:"format,omitempty"`
}

type flattenResponse struct {
	Entries map[string]any `json:"entries"`
	Count   int            `json:"count"`
}

type queryResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Engine    string    `json:"engine"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// writeJSON encodes payload before writing the header; an encoding failure
// is answered with a 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: "Internal error", Details: err.Error()})
	}

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
