package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/shift-attendance/internal/application"
	"github.com/example/shift-attendance/internal/export"
)

var errInvalidMonthQuery = errors.New("年と月は数値で指定してください。")

type summaryService interface {
	ByDay(ctx context.Context, params application.ByDayParams) ([]application.DaySummary, error)
	ByWeek(ctx context.Context, params application.ByMonthParams) ([]application.WeekSummary, error)
	ByMonth(ctx context.Context, params application.ByMonthParams) (application.MonthSummary, error)
	ByStore(ctx context.Context, params application.ByStoreParams) ([]application.UserSummary, error)
}

type SummaryHandler struct {
	service   summaryService
	responder responder
	logger    *slog.Logger
}

func NewSummaryHandler(service summaryService, logger *slog.Logger) *SummaryHandler {
	base := defaultLogger(logger)
	return &SummaryHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SummaryHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SummaryHandler", operation, attrs...)
}

func (h *SummaryHandler) Daily(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	logger := h.log(r.Context(), "Daily", "principal_id", principal.UserID)

	days, err := h.service.ByDay(r.Context(), application.ByDayParams{
		Principal: principal,
		UserID:    strings.TrimSpace(query.Get("user_id")),
		StoreID:   strings.TrimSpace(query.Get("store_id")),
		StartDate: strings.TrimSpace(query.Get("start_date")),
		EndDate:   strings.TrimSpace(query.Get("end_date")),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "daily summary failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(days)).InfoContext(r.Context(), "daily summary computed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dailySummaryResponse{Days: toDaySummaryDTOs(days)})
}

func (h *SummaryHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params, err := monthParamsFromQuery(r, principal)
	if err != nil {
		h.log(r.Context(), "Weekly", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse month query", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonthQuery)
		return
	}

	logger := h.log(r.Context(), "Weekly", "principal_id", principal.UserID, "year", params.Year, "month", int(params.Month))

	weeks, svcErr := h.service.ByWeek(r.Context(), params)
	if svcErr != nil {
		logger.ErrorContext(r.Context(), "weekly summary failed", "error", svcErr, "error_kind", application.ErrorKind(svcErr))
		h.responder.handleServiceError(r.Context(), w, svcErr)
		return
	}

	logger.With("result_count", len(weeks)).InfoContext(r.Context(), "weekly summary computed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, weeklySummaryResponse{Weeks: toWeekSummaryDTOs(weeks)})
}

func (h *SummaryHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params, err := monthParamsFromQuery(r, principal)
	if err != nil {
		h.log(r.Context(), "Monthly", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse month query", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonthQuery)
		return
	}

	logger := h.log(r.Context(), "Monthly", "principal_id", principal.UserID, "year", params.Year, "month", int(params.Month))

	month, svcErr := h.service.ByMonth(r.Context(), params)
	if svcErr != nil {
		logger.ErrorContext(r.Context(), "monthly summary failed", "error", svcErr, "error_kind", application.ErrorKind(svcErr))
		h.responder.handleServiceError(r.Context(), w, svcErr)
		return
	}

	logger.InfoContext(r.Context(), "monthly summary computed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMonthSummaryDTO(month))
}

func (h *SummaryHandler) Store(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	storeID, ok := StoreIDFromContext(r.Context())
	if !ok || strings.TrimSpace(storeID) == "" {
		h.log(r.Context(), "Store", "error_kind", "bad_request").ErrorContext(r.Context(), "missing store id for summary")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStoreID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	year, month, err := parseYearMonth(query.Get("year"), query.Get("month"))
	if err != nil {
		h.log(r.Context(), "Store", "principal_id", principal.UserID, "store_id", storeID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse month query", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonthQuery)
		return
	}

	logger := h.log(r.Context(), "Store", "principal_id", principal.UserID, "store_id", storeID, "year", year, "month", int(month))

	rows, svcErr := h.service.ByStore(r.Context(), application.ByStoreParams{
		Principal: principal,
		StoreID:   storeID,
		Year:      year,
		Month:     month,
		UserID:    strings.TrimSpace(query.Get("user_id")),
	})
	if svcErr != nil {
		logger.ErrorContext(r.Context(), "store summary failed", "error", svcErr, "error_kind", application.ErrorKind(svcErr))
		h.responder.handleServiceError(r.Context(), w, svcErr)
		return
	}

	if strings.EqualFold(strings.TrimSpace(query.Get("format")), "xlsx") {
		h.writeWorkbook(w, r, logger, storeID, year, month, rows)
		return
	}

	logger.With("result_count", len(rows)).InfoContext(r.Context(), "store summary computed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, storeSummaryResponse{
		StoreID: storeID,
		Year:    year,
		Month:   int(month),
		Users:   toUserSummaryDTOs(rows),
	})
}

func (h *SummaryHandler) writeWorkbook(w http.ResponseWriter, r *http.Request, logger *slog.Logger, storeID string, year int, month time.Month, rows []application.UserSummary) {
	exportRows := make([]export.Row, 0, len(rows))
	for _, row := range rows {
		exportRows = append(exportRows, export.Row{
			UserID:           row.UserID,
			DisplayName:      row.DisplayName,
			ScheduledMinutes: row.ScheduledMinutes,
			ActualMinutes:    row.ActualMinutes,
			BreakMinutes:     row.BreakMinutes,
		})
	}

	workbook, err := export.StoreMonthWorkbook(export.StoreMonth{
		StoreID: storeID,
		Year:    year,
		Month:   month,
		Rows:    exportRows,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "workbook generation failed", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}
	defer workbook.Close()

	filename := fmt.Sprintf("store-%s-%04d-%02d.xlsx", storeID, year, int(month))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := workbook.WriteTo(w); err != nil {
		logger.ErrorContext(r.Context(), "failed to stream workbook", "error", err)
		return
	}

	logger.With("result_count", len(rows)).InfoContext(r.Context(), "store summary exported")
}

func monthParamsFromQuery(r *http.Request, principal application.Principal) (application.ByMonthParams, error) {
	query := r.URL.Query()
	year, month, err := parseYearMonth(query.Get("year"), query.Get("month"))
	if err != nil {
		return application.ByMonthParams{}, err
	}
	return application.ByMonthParams{
		Principal: principal,
		UserID:    strings.TrimSpace(query.Get("user_id")),
		StoreID:   strings.TrimSpace(query.Get("store_id")),
		Year:      year,
		Month:     month,
	}, nil
}

func parseYearMonth(yearValue, monthValue string) (int, time.Month, error) {
	year, err := strconv.Atoi(strings.TrimSpace(yearValue))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q: %w", yearValue, err)
	}
	month, err := strconv.Atoi(strings.TrimSpace(monthValue))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: %w", monthValue, err)
	}
	return year, time.Month(month), nil
}

type dailySummaryResponse struct {
	Days []daySummaryDTO `json:"days"`
}

type weeklySummaryResponse struct {
	Weeks []weekSummaryDTO `json:"weeks"`
}

type storeSummaryResponse struct {
	StoreID string           `json:"store_id"`
	Year    int              `json:"year"`
	Month   int              `json:"month"`
	Users   []userSummaryDTO `json:"users"`
}

type daySummaryDTO struct {
	Date             string  `json:"date"`
	ScheduledMinutes float64 `json:"scheduled_minutes"`
	ActualMinutes    float64 `json:"actual_minutes"`
	BreakMinutes     float64 `json:"break_minutes"`
}

type weekSummaryDTO struct {
	WeekStart        string          `json:"week_start"`
	ScheduledMinutes float64         `json:"scheduled_minutes"`
	ActualMinutes    float64         `json:"actual_minutes"`
	BreakMinutes     float64         `json:"break_minutes"`
	Days             []daySummaryDTO `json:"days"`
}

type monthSummaryDTO struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	ScheduledMinutes float64         `json:"scheduled_minutes"`
	ActualMinutes    float64         `json:"actual_minutes"`
	BreakMinutes     float64         `json:"break_minutes"`
	Days             []daySummaryDTO `json:"days"`
}

type userSummaryDTO struct {
	UserID           string  `json:"user_id"`
	DisplayName      string  `json:"display_name"`
	ScheduledMinutes float64 `json:"scheduled_minutes"`
	ActualMinutes    float64 `json:"actual_minutes"`
	BreakMinutes     float64 `json:"break_minutes"`
}

func toDaySummaryDTOs(days []application.DaySummary) []daySummaryDTO {
	if len(days) == 0 {
		return nil
	}
	out := make([]daySummaryDTO, 0, len(days))
	for _, day := range days {
		out = append(out, daySummaryDTO{
			Date:             day.Date,
			ScheduledMinutes: day.ScheduledMinutes,
			ActualMinutes:    day.ActualMinutes,
			BreakMinutes:     day.BreakMinutes,
		})
	}
	return out
}

func toWeekSummaryDTOs(weeks []application.WeekSummary) []weekSummaryDTO {
	if len(weeks) == 0 {
		return nil
	}
	out := make([]weekSummaryDTO, 0, len(weeks))
	for _, week := range weeks {
		out = append(out, weekSummaryDTO{
			WeekStart:        week.WeekStart,
			ScheduledMinutes: week.ScheduledMinutes,
			ActualMinutes:    week.ActualMinutes,
			BreakMinutes:     week.BreakMinutes,
			Days:             toDaySummaryDTOs(week.Days),
		})
	}
	return out
}

func toMonthSummaryDTO(month application.MonthSummary) monthSummaryDTO {
	return monthSummaryDTO{
		Year:             month.Year,
		Month:            int(month.Month),
		ScheduledMinutes: month.ScheduledMinutes,
		ActualMinutes:    month.ActualMinutes,
		BreakMinutes:     month.BreakMinutes,
		Days:             toDaySummaryDTOs(month.Days),
	}
}

func toUserSummaryDTOs(rows []application.UserSummary) []userSummaryDTO {
	if len(rows) == 0 {
		return nil
	}
	out := make([]userSummaryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, userSummaryDTO{
			UserID:           row.UserID,
			DisplayName:      row.DisplayName,
			ScheduledMinutes: row.ScheduledMinutes,
			ActualMinutes:    row.ActualMinutes,
			BreakMinutes:     row.BreakMinutes,
		})
	}
	return out
}
