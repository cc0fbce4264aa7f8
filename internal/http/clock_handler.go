package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/shift-attendance/internal/application"
	"github.com/example/shift-attendance/internal/reconcile"
)

type clockEventService interface {
	CreateClockEvent(ctx context.Context, params application.CreateClockEventParams) (application.ClockEvent, error)
	EditSelectedTime(ctx context.Context, params application.EditSelectedTimeParams) (application.ClockEvent, error)
	ApplyApproval(ctx context.Context, params application.ApplyApprovalParams) (application.ClockEvent, error)
	ResolveWorkStatus(ctx context.Context, principal application.Principal, userID, storeID string) (application.WorkStatusResult, error)
}

type ClockEventHandler struct {
	service   clockEventService
	responder responder
	logger    *slog.Logger
}

func NewClockEventHandler(service clockEventService, logger *slog.Logger) *ClockEventHandler {
	base := defaultLogger(logger)
	return &ClockEventHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ClockEventHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ClockEventHandler", operation, attrs...)
}

func (h *ClockEventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req clockEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode clock event request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse clock event request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "kind", req.Kind)

	event, err := h.service.CreateClockEvent(r.Context(), application.CreateClockEventParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "clock event creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("event_id", event.ID, "status", string(event.Status)).InfoContext(r.Context(), "clock event recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, clockEventResponse{ClockEvent: toClockEventDTO(event)})
}

func (h *ClockEventHandler) EditTime(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := ClockEventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.log(r.Context(), "EditTime", "error_kind", "bad_request").ErrorContext(r.Context(), "missing clock event id for edit")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidClockEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req editTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "EditTime", "principal_id", principal.UserID, "event_id", eventID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode edit request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	selected, err := parseTimestamp(req.SelectedTime)
	if err != nil {
		h.log(r.Context(), "EditTime", "principal_id", principal.UserID, "event_id", eventID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse selected time", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "EditTime", "principal_id", principal.UserID, "event_id", eventID)

	event, err := h.service.EditSelectedTime(r.Context(), application.EditSelectedTimeParams{
		Principal:    principal,
		EventID:      eventID,
		SelectedTime: selected,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "clock event edit failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", string(event.Status)).InfoContext(r.Context(), "clock event time updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, clockEventResponse{ClockEvent: toClockEventDTO(event)})
}

func (h *ClockEventHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := ClockEventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.log(r.Context(), "Approve", "error_kind", "bad_request").ErrorContext(r.Context(), "missing clock event id for approval")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidClockEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req approvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Approve", "principal_id", principal.UserID, "event_id", eventID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode approval request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	approverID := strings.TrimSpace(req.ApproverID)
	if approverID == "" {
		approverID = principal.UserID
	}

	logger := h.log(r.Context(), "Approve", "principal_id", principal.UserID, "event_id", eventID, "decision", req.Decision)

	event, err := h.service.ApplyApproval(r.Context(), application.ApplyApprovalParams{
		Principal:  principal,
		EventID:    eventID,
		Decision:   application.ApprovalDecision(req.Decision),
		ApproverID: approverID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "clock event approval failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", string(event.Status)).InfoContext(r.Context(), "clock event approval applied")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, clockEventResponse{ClockEvent: toClockEventDTO(event)})
}

func (h *ClockEventHandler) WorkStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	userID := strings.TrimSpace(query.Get("user_id"))
	storeID := strings.TrimSpace(query.Get("store_id"))

	logger := h.log(r.Context(), "WorkStatus", "principal_id", principal.UserID, "user_id", userID)

	result, err := h.service.ResolveWorkStatus(r.Context(), principal, userID, storeID)
	if err != nil {
		logger.ErrorContext(r.Context(), "work status resolution failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", string(result.Status)).InfoContext(r.Context(), "work status resolved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkStatusDTO(result))
}

type clockEventRequest struct {
	UserID       string  `json:"user_id"`
	StoreID      string  `json:"store_id"`
	ShiftID      *string `json:"shift_id,omitempty"`
	BreakID      *string `json:"break_id,omitempty"`
	Kind         string  `json:"kind"`
	SelectedTime string  `json:"selected_time"`
	Method       string  `json:"method"`
}

func (r clockEventRequest) toInput() (application.ClockEventInput, error) {
	var selected time.Time
	if strings.TrimSpace(r.SelectedTime) != "" {
		parsed, err := parseTimestamp(r.SelectedTime)
		if err != nil {
			return application.ClockEventInput{}, err
		}
		selected = parsed
	}

	return application.ClockEventInput{
		UserID:       strings.TrimSpace(r.UserID),
		StoreID:      strings.TrimSpace(r.StoreID),
		ShiftID:      r.ShiftID,
		BreakID:      r.BreakID,
		Kind:         reconcile.EventKind(strings.TrimSpace(r.Kind)),
		SelectedTime: selected,
		Method:       strings.TrimSpace(r.Method),
	}, nil
}

type editTimeRequest struct {
	SelectedTime string `json:"selected_time"`
}

type approvalRequest struct {
	Decision   string `json:"decision"`
	ApproverID string `json:"approver_id"`
}

type clockEventResponse struct {
	ClockEvent clockEventDTO `json:"clock_event"`
}

type clockEventDTO struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	StoreID      string  `json:"store_id"`
	ShiftID      *string `json:"shift_id,omitempty"`
	BreakID      *string `json:"break_id,omitempty"`
	Kind         string  `json:"kind"`
	SelectedTime string  `json:"selected_time"`
	ActualTime   string  `json:"actual_time"`
	Method       string  `json:"method"`
	Status       string  `json:"status"`
	ApprovedBy   *string `json:"approved_by,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func toClockEventDTO(event application.ClockEvent) clockEventDTO {
	return clockEventDTO{
		ID:           event.ID,
		UserID:       event.UserID,
		StoreID:      event.StoreID,
		ShiftID:      event.ShiftID,
		BreakID:      event.BreakID,
		Kind:         string(event.Kind),
		SelectedTime: event.SelectedTime.Format(time.RFC3339Nano),
		ActualTime:   event.ActualTime.Format(time.RFC3339Nano),
		Method:       event.Method,
		Status:       string(event.Status),
		ApprovedBy:   event.ApprovedBy,
		CreatedAt:    event.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    event.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type workStatusResponse struct {
	Status     string          `json:"status"`
	LastRecord *clockEventDTO  `json:"last_record,omitempty"`
	Records    []clockEventDTO `json:"records,omitempty"`
}

func toWorkStatusDTO(result application.WorkStatusResult) workStatusResponse {
	resp := workStatusResponse{Status: string(result.Status)}
	if result.LastRecord != nil {
		dto := toClockEventDTO(*result.LastRecord)
		resp.LastRecord = &dto
	}
	for _, record := range result.Records {
		resp.Records = append(resp.Records, toClockEventDTO(record))
	}
	return resp
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(value))
}
