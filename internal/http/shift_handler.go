package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/shift-attendance/internal/application"
)

type shiftService interface {
	CreateShift(ctx context.Context, params application.CreateShiftParams) (application.Shift, error)
	ListShiftsForDay(ctx context.Context, principal application.Principal, userID, storeID, date string) ([]application.Shift, error)
}

type shiftCopyService interface {
	Copy(ctx context.Context, params application.CopyShiftsParams) (application.CopyShiftsResult, error)
}

type ShiftHandler struct {
	service   shiftService
	copier    shiftCopyService
	responder responder
	logger    *slog.Logger
}

func NewShiftHandler(service shiftService, copier shiftCopyService, logger *slog.Logger) *ShiftHandler {
	base := defaultLogger(logger)
	return &ShiftHandler{service: service, copier: copier, responder: newResponder(base), logger: base}
}

func (h *ShiftHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ShiftHandler", operation, attrs...)
}

func (h *ShiftHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req shiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode shift request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse shift request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "user_id", input.UserID, "store_id", input.StoreID)

	shift, err := h.service.CreateShift(r.Context(), application.CreateShiftParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "shift creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("shift_id", shift.ID).InfoContext(r.Context(), "shift created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, shiftResponse{Shift: toShiftDTO(shift)})
}

func (h *ShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	date := strings.TrimSpace(query.Get("date"))

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "date", date)

	shifts, err := h.service.ListShiftsForDay(r.Context(), principal,
		strings.TrimSpace(query.Get("user_id")),
		strings.TrimSpace(query.Get("store_id")),
		date,
	)
	if err != nil {
		logger.ErrorContext(r.Context(), "shift list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(shifts)).InfoContext(r.Context(), "shifts listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listShiftsResponse{Shifts: toShiftDTOs(shifts)})
}

func (h *ShiftHandler) Copy(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.copier == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req copyShiftsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Copy", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode copy request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Copy",
		"principal_id", principal.UserID,
		"source_date", req.SourceDate,
		"target_date", req.TargetDate,
		"overwrite", req.Overwrite,
	)

	result, err := h.copier.Copy(r.Context(), application.CopyShiftsParams{
		Principal:  principal,
		SourceDate: strings.TrimSpace(req.SourceDate),
		TargetDate: strings.TrimSpace(req.TargetDate),
		StoreID:    strings.TrimSpace(req.StoreID),
		Overwrite:  req.Overwrite,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "shift copy failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("copied", result.Copied, "skipped", result.Skipped).InfoContext(r.Context(), "shift copy completed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, copyShiftsResponse{
		Copied:  result.Copied,
		Skipped: result.Skipped,
	})
}

type shiftRequest struct {
	UserID  string              `json:"user_id"`
	StoreID string              `json:"store_id"`
	Start   string              `json:"start"`
	End     string              `json:"end"`
	Breaks  []shiftBreakRequest `json:"breaks,omitempty"`
}

type shiftBreakRequest struct {
	BreakStart string `json:"break_start"`
	BreakEnd   string `json:"break_end"`
}

func (r shiftRequest) toInput() (application.ShiftInput, error) {
	input := application.ShiftInput{
		UserID:  strings.TrimSpace(r.UserID),
		StoreID: strings.TrimSpace(r.StoreID),
	}

	if strings.TrimSpace(r.Start) != "" {
		start, err := parseTimestamp(r.Start)
		if err != nil {
			return application.ShiftInput{}, err
		}
		input.Start = start
	}
	if strings.TrimSpace(r.End) != "" {
		end, err := parseTimestamp(r.End)
		if err != nil {
			return application.ShiftInput{}, err
		}
		input.End = end
	}

	for _, brk := range r.Breaks {
		start, err := parseTimestamp(brk.BreakStart)
		if err != nil {
			return application.ShiftInput{}, err
		}
		end, err := parseTimestamp(brk.BreakEnd)
		if err != nil {
			return application.ShiftInput{}, err
		}
		input.Breaks = append(input.Breaks, application.BreakInput{BreakStart: start, BreakEnd: end})
	}

	return input, nil
}

type copyShiftsRequest struct {
	SourceDate string `json:"source_date"`
	TargetDate string `json:"target_date"`
	StoreID    string `json:"store_id"`
	Overwrite  bool   `json:"overwrite"`
}

type copyShiftsResponse struct {
	Copied  int `json:"copied"`
	Skipped int `json:"skipped"`
}

type shiftResponse struct {
	Shift shiftDTO `json:"shift"`
}

type listShiftsResponse struct {
	Shifts []shiftDTO `json:"shifts"`
}

type shiftDTO struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	StoreID   string          `json:"store_id"`
	Start     string          `json:"start"`
	End       string          `json:"end"`
	CreatedBy string          `json:"created_by"`
	Breaks    []shiftBreakDTO `json:"breaks,omitempty"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type shiftBreakDTO struct {
	ID         string `json:"id"`
	BreakStart string `json:"break_start"`
	BreakEnd   string `json:"break_end"`
}

func toShiftDTO(shift application.Shift) shiftDTO {
	dto := shiftDTO{
		ID:        shift.ID,
		UserID:    shift.UserID,
		StoreID:   shift.StoreID,
		Start:     shift.Start.Format(time.RFC3339Nano),
		End:       shift.End.Format(time.RFC3339Nano),
		CreatedBy: shift.CreatedBy,
		CreatedAt: shift.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: shift.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, brk := range shift.Breaks {
		dto.Breaks = append(dto.Breaks, shiftBreakDTO{
			ID:         brk.ID,
			BreakStart: brk.BreakStart.Format(time.RFC3339Nano),
			BreakEnd:   brk.BreakEnd.Format(time.RFC3339Nano),
		})
	}
	return dto
}

func toShiftDTOs(shifts []application.Shift) []shiftDTO {
	if len(shifts) == 0 {
		return nil
	}
	out := make([]shiftDTO, 0, len(shifts))
	for _, shift := range shifts {
		out = append(out, toShiftDTO(shift))
	}
	return out
}
