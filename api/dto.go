/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the domain
  model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Handlers validate; DTOs are pure data carriers. Domain-level validation
  (date ordering, rank enum) lives in the leave package and is surfaced as
  field-level detail.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/skycruzer/fleet-management-v2-sub008/leave"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SubmitLeaveRequest is the body for submitting a new request.
type SubmitLeaveRequest struct {
	PilotID   string `json:"pilot_id"`
	Rank      string `json:"rank"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// DecisionRequest is the body for approve/reject/cancel actions.
type DecisionRequest struct {
	ActorID string `json:"actor_id"`
	Comment string `json:"comment,omitempty"`
}

// SubmitBidRequest is the body for submitting a leave bid.
type SubmitBidRequest struct {
	PilotID string          `json:"pilot_id"`
	Rank    string          `json:"rank"`
	Options []BidOptionJSON `json:"options"`
}

// BidOptionJSON is one preferred window, most preferred first.
type BidOptionJSON struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// UpsertPilotRequest seeds or updates a roster row.
type UpsertPilotRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Rank      string `json:"rank"`
	Seniority int    `json:"seniority_number"`
	Active    bool   `json:"active"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// LeaveRequestDTO represents a leave request in API responses.
type LeaveRequestDTO struct {
	ID            string `json:"id"`
	PilotID       string `json:"pilot_id"`
	Rank          string `json:"rank"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Status        string `json:"status"`
	SubmittedAt   string `json:"submitted_at"`
	RosterPeriod  string `json:"roster_period"`
	IsLateRequest bool   `json:"is_late_request"`
	ReviewedBy    string `json:"reviewed_by,omitempty"`
	ReviewedAt    string `json:"reviewed_at,omitempty"`
	Comment       string `json:"comment,omitempty"`
}

// SubmitResponse wraps a created request with its warnings.
type SubmitResponse struct {
	Request  LeaveRequestDTO `json:"request"`
	Warnings []string        `json:"warnings,omitempty"`
}

// VerdictDTO is the advisory eligibility verdict.
type VerdictDTO struct {
	Eligible              bool     `json:"eligible"`
	Reasons               []string `json:"reasons,omitempty"`
	ConflictingRequestIDs []string `json:"conflicting_request_ids,omitempty"`
	Warnings              []string `json:"warnings,omitempty"`
}

// PendingRequestDTO is one row of the review queue.
type PendingRequestDTO struct {
	Request         LeaveRequestDTO `json:"request"`
	SeniorityNumber int             `json:"seniority_number"`
}

// DayAvailabilityDTO is one row of the availability report.
type DayAvailabilityDTO struct {
	Date            string `json:"date"`
	ActiveCrew      int    `json:"active_crew"`
	MinimumRequired int    `json:"minimum_required"`
	Approved        int    `json:"approved"`
	Remaining       int    `json:"remaining"`
	Utilization     string `json:"utilization"`
}

// BidDTO represents a leave bid in API responses.
type BidDTO struct {
	ID           string          `json:"id"`
	PilotID      string          `json:"pilot_id"`
	Rank         string          `json:"rank"`
	Options      []BidOptionJSON `json:"options"`
	RosterPeriod string          `json:"roster_period"`
	Status       string          `json:"status"`
	SubmittedAt  string          `json:"submitted_at"`
}

// AuditEntryDTO is one audit row.
type AuditEntryDTO struct {
	ID        string `json:"id"`
	At        string `json:"at"`
	ActorID   string `json:"actor_id"`
	Action    string `json:"action"`
	RequestID string `json:"request_id,omitempty"`
	PilotID   string `json:"pilot_id,omitempty"`
	Rank      string `json:"rank,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error                 string   `json:"error"`
	Code                  string   `json:"code"`
	Reasons               []string `json:"reasons,omitempty"`
	ConflictingRequestIDs []string `json:"conflicting_request_ids,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toRequestDTO(req *leave.LeaveRequest) LeaveRequestDTO {
	dto := LeaveRequestDTO{
		ID:            string(req.ID),
		PilotID:       string(req.PilotID),
		Rank:          string(req.Rank),
		StartDate:     req.Range.Start.String(),
		EndDate:       req.Range.End.String(),
		Status:        string(req.Status),
		SubmittedAt:   req.SubmittedAt.Format(timeLayout),
		RosterPeriod:  req.RosterPeriod,
		IsLateRequest: req.IsLateRequest,
		ReviewedBy:    req.ReviewedBy,
		Comment:       req.Comment,
	}
	if req.ReviewedAt != nil {
		dto.ReviewedAt = req.ReviewedAt.Format(timeLayout)
	}
	return dto
}

func toVerdictDTO(v *leave.Verdict) VerdictDTO {
	dto := VerdictDTO{
		Eligible: v.Eligible,
		Reasons:  v.Reasons,
		Warnings: v.Warnings,
	}
	for _, id := range v.ConflictingRequestIDs {
		dto.ConflictingRequestIDs = append(dto.ConflictingRequestIDs, string(id))
	}
	return dto
}

func toBidDTO(bid *leave.LeaveBid) BidDTO {
	dto := BidDTO{
		ID:           string(bid.ID),
		PilotID:      string(bid.PilotID),
		Rank:         string(bid.Rank),
		RosterPeriod: bid.RosterPeriod,
		Status:       string(bid.Status),
		SubmittedAt:  bid.SubmittedAt.Format(timeLayout),
	}
	for _, o := range bid.Options {
		dto.Options = append(dto.Options, BidOptionJSON{
			StartDate: o.Start.String(),
			EndDate:   o.End.String(),
		})
	}
	return dto
}
