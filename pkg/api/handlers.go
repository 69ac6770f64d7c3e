package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/Mindburn-Labs/timelock/pkg/auth"
	"github.com/Mindburn-Labs/timelock/pkg/contracts"
	"github.com/Mindburn-Labs/timelock/pkg/timelock"
)

// Server exposes the gate's operations over HTTP.
type Server struct {
	gate *timelock.Service
}

// NewServer creates a Server over the given gate service.
func NewServer(gate *timelock.Service) *Server {
	return &Server{gate: gate}
}

// Routes returns the full handler chain: request-id, rate limiting, auth,
// then the operation handlers.
func (s *Server) Routes(validator *auth.TokenValidator, limiter *GlobalRateLimiter) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/v1/transactions/derive", s.HandleDerive)
	mux.HandleFunc("/v1/transactions/queue", s.HandleQueue)
	mux.HandleFunc("/v1/transactions/execute", s.HandleExecute)
	mux.HandleFunc("/v1/transactions/cancel", s.HandleCancel)
	mux.HandleFunc("/v1/deposit", s.HandleDeposit)
	mux.HandleFunc("/v1/balance", s.HandleBalance)

	var h http.Handler = mux
	h = AuthMiddleware(validator)(h)
	if limiter != nil {
		h = limiter.Middleware(h)
	}
	return RequestIDMiddleware(h)
}

// descriptorRequest is the wire form of a call descriptor. Data travels as
// hex to keep payloads copy-pasteable.
type descriptorRequest struct {
	Target            string `json:"target"`
	Value             uint64 `json:"value"`
	Data              string `json:"data,omitempty"`
	FunctionSignature string `json:"function_signature,omitempty"`
	ScheduledTime     int64  `json:"scheduled_time"`
}

func (r descriptorRequest) descriptor() (contracts.Descriptor, error) {
	data, err := hex.DecodeString(r.Data)
	if err != nil {
		return contracts.Descriptor{}, err
	}
	return contracts.Descriptor{
		Target:            r.Target,
		Value:             r.Value,
		Data:              data,
		FunctionSignature: r.FunctionSignature,
		ScheduledTime:     r.ScheduledTime,
	}, nil
}

func decodeDescriptor(w http.ResponseWriter, r *http.Request) (contracts.Descriptor, uint64, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	var req struct {
		descriptorRequest
		AttachedValue uint64 `json:"attached_value,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return contracts.Descriptor{}, 0, false
	}
	if req.Target == "" {
		WriteBadRequest(w, "Missing required field: target")
		return contracts.Descriptor{}, 0, false
	}
	d, err := req.descriptor()
	if err != nil {
		WriteBadRequest(w, "Field data must be hex encoded")
		return contracts.Descriptor{}, 0, false
	}
	return d, req.AttachedValue, true
}

func caller(r *http.Request) auth.Principal {
	p, _ := auth.GetPrincipal(r.Context())
	return p
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// HandleDerive computes the transaction identifier for a descriptor.
// Pure; requires no authentication.
func (s *Server) HandleDerive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}
	d, _, ok := decodeDescriptor(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]string{"tx_id": s.gate.DeriveID(d).Hex()})
}

// HandleQueue registers a descriptor for later execution.
func (s *Server) HandleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}
	d, _, ok := decodeDescriptor(w, r)
	if !ok {
		return
	}

	id, err := s.gate.Queue(r.Context(), caller(r), d)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]string{"tx_id": id.Hex()})
}

// HandleExecute dispatches a previously queued descriptor.
func (s *Server) HandleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}
	d, attached, ok := decodeDescriptor(w, r)
	if !ok {
		return
	}

	out, err := s.gate.Execute(r.Context(), caller(r), d, attached)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, map[string]string{
		"tx_id":  s.gate.DeriveID(d).Hex(),
		"result": hex.EncodeToString(out),
	})
}

// HandleCancel withdraws a pending transaction by identifier.
func (s *Server) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	var req struct {
		TxID string `json:"tx_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	id, err := contracts.ParseTxID(req.TxID)
	if err != nil {
		WriteBadRequest(w, "Field tx_id must be 32 bytes of hex")
		return
	}

	if err := s.gate.Cancel(r.Context(), caller(r), id); err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, map[string]string{"tx_id": id.Hex(), "status": "cancelled"})
}

// HandleDeposit accepts funds into the gate. No logic beyond increasing the
// held balance.
func (s *Server) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	var req struct {
		Value uint64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	s.gate.Deposit(r.Context(), req.Value)
	writeJSON(w, map[string]uint64{"balance": s.gate.Balance()})
}

// HandleBalance reports the funds currently held by the gate.
func (s *Server) HandleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}
	writeJSON(w, map[string]uint64{"balance": s.gate.Balance()})
}
