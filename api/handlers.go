/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the engine via REST. Handles HTTP parsing, JSON serialization,
  and the error-to-status mapping; all decisions are delegated to the leave
  package.

ENDPOINTS:
  Requests:
    POST   /api/requests                   Submit leave request
    GET    /api/requests/{id}              Get request
    GET    /api/requests/{id}/eligibility  Advisory eligibility verdict
    POST   /api/requests/{id}/approve      Atomic approval
    POST   /api/requests/{id}/reject       Reject (admin)
    POST   /api/requests/{id}/cancel       Cancel (pilot/admin)
    GET    /api/requests/pending?rank=     Review queue, seniority order

  Availability:
    GET    /api/availability?rank=&from=&to=   Per-day capacity report

  Bids:
    POST   /api/bids                       Submit leave bid
    GET    /api/bids?rank=&status=         List bids
    POST   /api/bids/{id}/withdraw         Withdraw an open bid

  Roster / audit:
    POST   /api/pilots                     Upsert roster row
    GET    /api/pilots                     List roster
    GET    /api/audit?request_id=          Audit trail

ERROR HANDLING:
  - 400: validation
  - 404: unknown request/pilot/bid
  - 409: state transition, conflict, capacity exceeded
  - 503: rank lock timeout (transient, caller may retry)
  - 500: everything else, without internal detail

SEE ALSO:
  - dto.go: Wire types
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/skycruzer/fleet-management-v2-sub008/leave"
	"github.com/skycruzer/fleet-management-v2-sub008/store/sqlite"
)

const timeLayout = time.RFC3339

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *leave.Service
	Store   *sqlite.Store
	Logger  *zap.Logger
}

// NewHandler creates a handler over the service and store.
func NewHandler(svc *leave.Service, store *sqlite.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: svc, Store: store, Logger: logger.Named("api")}
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest creates a new PENDING leave request.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, &leave.ValidationError{Field: "body", Detail: "invalid JSON"})
		return
	}

	rng, err := parseRange(body.StartDate, body.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.Service.SubmitLeaveRequest(r.Context(), leave.PilotID(body.PilotID), leave.Rank(body.Rank), rng)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmitResponse{
		Request:  toRequestDTO(res.Request),
		Warnings: res.Warnings,
	})
}

// GetRequest returns a stored request.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))
	req, err := h.Service.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// GetEligibility returns the advisory verdict. Read-only, no lock.
func (h *Handler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))
	verdict, err := h.Service.EvaluateEligibility(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerdictDTO(verdict))
}

// ApproveRequest runs the atomic approval transaction.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))
	var body DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ActorID == "" {
		writeError(w, &leave.ValidationError{Field: "actor_id", Detail: "must not be empty"})
		return
	}

	req, err := h.Service.ApproveLeaveRequest(r.Context(), id, body.ActorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// RejectRequest rejects a PENDING request.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))
	var body DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ActorID == "" {
		writeError(w, &leave.ValidationError{Field: "actor_id", Detail: "must not be empty"})
		return
	}

	req, err := h.Service.RejectLeaveRequest(r.Context(), id, body.ActorID, body.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// CancelRequest cancels a PENDING or APPROVED request.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))
	var body DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ActorID == "" {
		writeError(w, &leave.ValidationError{Field: "actor_id", Detail: "must not be empty"})
		return
	}

	req, err := h.Service.CancelLeaveRequest(r.Context(), id, body.ActorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// ListPending returns the review queue for a rank in seniority order.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	rank, err := leave.ParseRank(r.URL.Query().Get("rank"))
	if err != nil {
		writeError(w, err)
		return
	}

	queue, err := h.Service.PendingByRank(r.Context(), rank)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]PendingRequestDTO, 0, len(queue))
	for _, entry := range queue {
		out = append(out, PendingRequestDTO{
			Request:         toRequestDTO(entry.Request),
			SeniorityNumber: entry.SeniorityNumber,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// AVAILABILITY
// =============================================================================

// GetAvailability returns the per-day capacity report for a rank.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rank, err := leave.ParseRank(q.Get("rank"))
	if err != nil {
		writeError(w, err)
		return
	}
	rng, err := parseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.Service.AvailabilityReport(r.Context(), rank, rng)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]DayAvailabilityDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, DayAvailabilityDTO{
			Date:            row.Date.String(),
			ActiveCrew:      row.ActiveCrew,
			MinimumRequired: row.MinimumRequired,
			Approved:        row.Approved,
			Remaining:       row.Remaining,
			Utilization:     row.Utilization.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// BID HANDLERS
// =============================================================================

// SubmitBid stores a new OPEN leave bid.
func (h *Handler) SubmitBid(w http.ResponseWriter, r *http.Request) {
	var body SubmitBidRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, &leave.ValidationError{Field: "body", Detail: "invalid JSON"})
		return
	}
	options := make([]leave.DateRange, 0, len(body.Options))
	for _, o := range body.Options {
		rng, err := parseRange(o.StartDate, o.EndDate)
		if err != nil {
			writeError(w, err)
			return
		}
		options = append(options, rng)
	}

	bid, err := h.Service.SubmitBid(r.Context(), leave.PilotID(body.PilotID), leave.Rank(body.Rank), options)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBidDTO(bid))
}

// ListBids lists bids for a rank and status (default OPEN).
func (h *Handler) ListBids(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rank, err := leave.ParseRank(q.Get("rank"))
	if err != nil {
		writeError(w, err)
		return
	}
	status := leave.BidStatus(q.Get("status"))
	if status == "" {
		status = leave.BidOpen
	}

	bids, err := h.Service.ListBids(r.Context(), rank, status)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]BidDTO, 0, len(bids))
	for _, bid := range bids {
		out = append(out, toBidDTO(bid))
	}
	writeJSON(w, http.StatusOK, out)
}

// WithdrawBid moves an OPEN bid to WITHDRAWN.
func (h *Handler) WithdrawBid(w http.ResponseWriter, r *http.Request) {
	id := leave.BidID(chi.URLParam(r, "id"))
	var body DecisionRequest
	_ = json.NewDecoder(r.Body).Decode(&body) // actor is optional here

	bid, err := h.Service.WithdrawBid(r.Context(), id, body.ActorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBidDTO(bid))
}

// =============================================================================
// ROSTER AND AUDIT
// =============================================================================

// UpsertPilot seeds or updates a roster row.
func (h *Handler) UpsertPilot(w http.ResponseWriter, r *http.Request) {
	var body UpsertPilotRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, &leave.ValidationError{Field: "body", Detail: "invalid JSON"})
		return
	}
	if body.ID == "" {
		writeError(w, &leave.ValidationError{Field: "id", Detail: "must not be empty"})
		return
	}
	rank, err := leave.ParseRank(body.Rank)
	if err != nil {
		writeError(w, err)
		return
	}

	p := sqlite.Pilot{
		ID:        leave.PilotID(body.ID),
		Name:      body.Name,
		Rank:      rank,
		Seniority: body.Seniority,
		Active:    body.Active,
	}
	if err := h.Store.UpsertPilot(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// ListPilots returns the roster ordered by seniority.
func (h *Handler) ListPilots(w http.ResponseWriter, r *http.Request) {
	pilots, err := h.Store.ListPilots(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]UpsertPilotRequest, 0, len(pilots))
	for _, p := range pilots {
		out = append(out, UpsertPilotRequest{
			ID:        string(p.ID),
			Name:      p.Name,
			Rank:      string(p.Rank),
			Seniority: p.Seniority,
			Active:    p.Active,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// QueryAudit returns the audit trail, newest filters applied server-side.
func (h *Handler) QueryAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter leave.AuditFilter
	if v := q.Get("request_id"); v != "" {
		id := leave.RequestID(v)
		filter.RequestID = &id
	}
	if v := q.Get("pilot_id"); v != "" {
		id := leave.PilotID(v)
		filter.PilotID = &id
	}
	if v := q.Get("actor_id"); v != "" {
		filter.ActorID = &v
	}

	entries, err := h.Store.QueryAudit(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]AuditEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryDTO{
			ID:        e.ID,
			At:        e.At.Format(timeLayout),
			ActorID:   e.ActorID,
			Action:    string(e.Action),
			RequestID: string(e.RequestID),
			PilotID:   string(e.PilotID),
			Rank:      string(e.Rank),
			Detail:    e.Detail,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// HELPERS
// =============================================================================

func parseRange(start, end string) (leave.DateRange, error) {
	if start == "" || end == "" {
		return leave.DateRange{}, &leave.ValidationError{Field: "dateRange", Detail: "start_date and end_date are required"}
	}
	s, err := leave.ParseDate(start)
	if err != nil {
		return leave.DateRange{}, &leave.ValidationError{Field: "start_date", Detail: err.Error()}
	}
	e, err := leave.ParseDate(end)
	if err != nil {
		return leave.DateRange{}, &leave.ValidationError{Field: "end_date", Detail: err.Error()}
	}
	return leave.NewDateRange(s, e), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP statuses, keeping the
// decision-supporting detail (reasons, competing request IDs) for client
// errors and hiding internals for everything else.
func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var conflictErr *leave.ConflictError
	var capacityErr *leave.CapacityError

	switch {
	case errors.As(err, &conflictErr):
		status = http.StatusConflict
		resp.Code = "conflict"
		resp.Reasons = conflictErr.Reasons
		for _, id := range conflictErr.ConflictingRequestIDs {
			resp.ConflictingRequestIDs = append(resp.ConflictingRequestIDs, string(id))
		}
	case errors.As(err, &capacityErr):
		status = http.StatusConflict
		resp.Code = "capacity_exceeded"
		resp.Reasons = capacityErr.Reasons
		for _, id := range capacityErr.ConflictingRequestIDs {
			resp.ConflictingRequestIDs = append(resp.ConflictingRequestIDs, string(id))
		}
	case errors.Is(err, leave.ErrValidation):
		status = http.StatusBadRequest
		resp.Code = "validation"
	case errors.Is(err, leave.ErrNotFound):
		status = http.StatusNotFound
		resp.Code = "not_found"
	case errors.Is(err, leave.ErrStateTransition):
		status = http.StatusConflict
		resp.Code = "state_transition"
	case errors.Is(err, leave.ErrLockTimeout):
		status = http.StatusServiceUnavailable
		resp.Code = "lock_timeout"
	default:
		resp = ErrorResponse{Error: "internal error", Code: "internal"}
	}

	writeJSON(w, status, resp)
}
