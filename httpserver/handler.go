package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/provenance-io/p8e-publisher/interfaces"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// RequestError provides structured error information for HTTP responses.
// It includes both an HTTP status code and the underlying error.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Publisher runs a publish over a bundle and a list of locations.
type Publisher interface {
	Publish(ctx context.Context, bundle interfaces.ArtifactBundle, destinations []interfaces.Destination) (map[string]interfaces.TxResult, error)
}

// BundleLoader reads the current artifacts. It is called once per publish so
// rebuilt archives are picked up without a restart.
type BundleLoader func() (interfaces.ArtifactBundle, error)

// PublishRequest optionally restricts a publish to some of the configured locations.
type PublishRequest struct {
	Locations []string `json:"locations"`
}

// PublishResponse reports per-location results. Error is set when the run
// stopped early; Results then holds the locations published before the failure.
type PublishResponse struct {
	Results map[string]interfaces.TxResult `json:"results"`
	Error   string                         `json:"error,omitempty"`
}

// Handler serves the publish and specification query API.
type Handler struct {
	publisher  Publisher
	ledgers    interfaces.LedgerFactory
	loadBundle BundleLoader
	locations  []interfaces.Destination
	log        *slog.Logger
}

// NewHandler creates a handler over the configured locations.
func NewHandler(publisher Publisher, ledgers interfaces.LedgerFactory, loadBundle BundleLoader, locations []interfaces.Destination, log *slog.Logger) *Handler {
	return &Handler{
		publisher:  publisher,
		ledgers:    ledgers,
		loadBundle: loadBundle,
		locations:  locations,
		log:        log,
	}
}

// HandlePublish publishes the configured artifacts.
//
// URL format: POST /api/publish
// Request body (optional): {"locations": ["testnet"]}; an empty body publishes to every location.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req PublishRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	destinations, err := h.selectLocations(req.Locations)
	if err != nil {
		h.writeError(w, err)
		return
	}

	bundle, err := h.loadBundle()
	if err != nil {
		h.log.Error("Failed to load artifacts", "err", err)
		h.writeError(w, &RequestError{StatusCode: http.StatusInternalServerError, Err: err})
		return
	}

	started := time.Now()
	// A client disconnect must not abort uploads or an in-flight broadcast.
	results, err := h.publisher.Publish(context.WithoutCancel(r.Context()), bundle, destinations)
	if results == nil {
		results = map[string]interfaces.TxResult{}
	}

	resp := PublishResponse{Results: results}
	status := http.StatusOK
	if err != nil {
		h.log.Error("Publish failed", "err", err, slog.Int("published", len(results)))
		resp.Error = err.Error()
		status = statusFor(err)
	} else {
		h.log.Info("Publish succeeded",
			slog.Int("locations", len(results)),
			slog.Duration("duration", time.Since(started)))
	}

	writeJSON(w, status, resp, h.log)
}

// HandleContractSpecification returns a contract specification from a location's ledger.
//
// URL format: GET /api/locations/{location}/contract-specs/{id}
func (h *Handler) HandleContractSpecification(w http.ResponseWriter, r *http.Request) {
	h.handleSpecification(w, r, interfaces.Ledger.ContractSpecification)
}

// HandleScopeSpecification returns a scope specification from a location's ledger.
//
// URL format: GET /api/locations/{location}/scope-specs/{id}
func (h *Handler) HandleScopeSpecification(w http.ResponseWriter, r *http.Request) {
	h.handleSpecification(w, r, interfaces.Ledger.ScopeSpecification)
}

type specificationQuery func(interfaces.Ledger, context.Context, string) (map[string]any, error)

func (h *Handler) handleSpecification(w http.ResponseWriter, r *http.Request, query specificationQuery) {
	name := r.PathValue("location")
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Missing specification id in URL", http.StatusBadRequest)
		return
	}

	dest, ok := h.location(name)
	if !ok {
		h.writeError(w, &RequestError{StatusCode: http.StatusNotFound, Err: fmt.Errorf("unknown location %q", name)})
		return
	}

	ledger, err := h.ledgers.LedgerFor(dest)
	if err != nil {
		h.log.Error("Failed to connect to ledger", "err", err, slog.String("location", name))
		h.writeError(w, err)
		return
	}

	spec, err := query(ledger, r.Context(), id)
	if err != nil {
		if !errors.Is(err, interfaces.ErrSpecificationNotFound) {
			h.log.Error("Specification query failed", "err", err,
				slog.String("location", name),
				slog.String("id", id))
		}
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, spec, h.log)
}

func (h *Handler) location(name string) (interfaces.Destination, bool) {
	for _, dest := range h.locations {
		if dest.Name == name {
			return dest, true
		}
	}
	return interfaces.Destination{}, false
}

func (h *Handler) selectLocations(names []string) ([]interfaces.Destination, error) {
	if len(names) == 0 {
		return h.locations, nil
	}
	out := make([]interfaces.Destination, 0, len(names))
	for _, name := range names {
		dest, ok := h.location(name)
		if !ok {
			return nil, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("unknown location %q", name)}
		}
		out = append(out, dest)
	}
	return out, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.StatusCode
	case errors.Is(err, interfaces.ErrInvalidConfiguration),
		errors.Is(err, interfaces.ErrInvalidKeyEncoding),
		errors.Is(err, interfaces.ErrEmptyContractSet):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrSpecificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrHashConsistencyViolation):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrBroadcastRejected),
		errors.Is(err, interfaces.ErrObjectStoreFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "err", err)
	}
}
