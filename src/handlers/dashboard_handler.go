// src/handlers/dashboard_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/username/txlens/backend/src/aggregation"
	"github.com/username/txlens/backend/src/index"
	"github.com/username/txlens/backend/src/logger"
	"github.com/username/txlens/backend/src/models"
	"github.com/username/txlens/backend/src/security/validation"
	"github.com/username/txlens/backend/src/selection"
	"github.com/username/txlens/backend/src/services"
	"github.com/username/txlens/backend/src/utils"
	"github.com/username/txlens/backend/src/views"
)

const (
	maxBodyBytes = 1 << 20
	minYear      = 1900
	maxYear      = 2200
)

type DashboardHandler struct {
	dashboardService services.DashboardService
	glyphOptions     views.GlyphOptions
}

func NewDashboardHandler(dashboardService services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		glyphOptions:     views.DefaultGlyphOptions(),
	}
}

// Routes mounts the session endpoints on r.
func (h *DashboardHandler) Routes(r chi.Router) {
	r.Post("/sessions", h.HandleCreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGetSession)
		r.Post("/refresh", h.HandleRefresh)
		r.Put("/cluster-config", h.HandleUpdateClusterConfig)
		r.Post("/selection", h.HandleDispatchSelection)
		r.Get("/highlighted", h.HandleGetHighlighted)
		r.Get("/calendar", h.HandleGetCalendar)
		r.Get("/calendar/day", h.HandleGetDayDetail)
		r.Put("/calendar/state", h.HandleUpdateCalendarState)
		r.Put("/colours", h.HandleUpdateColours)
		r.Get("/scatter", h.HandleGetScatter)
		r.Get("/legends", h.HandleGetLegends)
		r.Get("/table", h.HandleGetTable)
	})
}

func (h *DashboardHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.dashboardService.CreateSession(r.Context())
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	utils.SendJSON(w, st, http.StatusCreated)
}

func (h *DashboardHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.dashboardService.Status(chi.URLParam(r, "id"))
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	utils.SendJSON(w, st, http.StatusOK)
}

func (h *DashboardHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.dashboardService.Refresh(r.Context(), id); err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendStatus(w, r, id, http.StatusAccepted)
}

func (h *DashboardHandler) HandleUpdateClusterConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var cfg models.ClusterConfig
	if !decodeBody(w, r, &cfg) {
		return
	}
	if err := h.dashboardService.UpdateClusterConfig(r.Context(), id, cfg); err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendStatus(w, r, id, http.StatusAccepted)
}

func (h *DashboardHandler) HandleDispatchSelection(w http.ResponseWriter, r *http.Request) {
	var req selection.ActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	action, err := selection.ParseAction(req)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	state, err := h.dashboardService.Dispatch(r.Context(), chi.URLParam(r, "id"), action)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	utils.SendJSON(w, state, http.StatusOK)
}

type highlightedResponse struct {
	CurrentSelector    selection.Selector `json:"currentSelector"`
	TransactionNumbers []string           `json:"transactionNumbers"`
}

func (h *DashboardHandler) HandleGetHighlighted(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	utils.SendJSON(w, highlightedResponse{
		CurrentSelector:    snap.Selection.CurrentSelector,
		TransactionNumbers: snap.Highlighted,
	}, http.StatusOK)
}

func (h *DashboardHandler) HandleGetCalendar(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	// Query parameters override the stored calendar state for this request only.
	year, err := validation.ValidateIntString(q.Get("year"), "year", snap.Calendar.CurrentYear, 0, maxYear)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	snap.Calendar.CurrentYear = year
	if raw := q.Get("superpositioned"); raw != "" {
		if snap.Calendar.Superpositioned, err = validation.ValidateBoolString(raw, "superpositioned"); err != nil {
			h.sendError(w, r, err)
			return
		}
	}

	view, err := views.BuildCalendar(snap, h.glyphOptions)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	utils.SendJSON(w, view, http.StatusOK)
}

// HandleGetDayDetail looks up one calendar cell. Without a year the cell is superpositioned.
func (h *DashboardHandler) HandleGetDayDetail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	day, dayErr := requiredInt(q.Get("day"), "day")
	month, monthErr := requiredInt(q.Get("month"), "month")
	if err := errors.Join(dayErr, monthErr); err != nil {
		h.sendError(w, r, err)
		return
	}
	year, err := validation.ValidateIntString(q.Get("year"), "year", 0, minYear, maxYear)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	detail, err := views.BuildDayDetail(snap, views.DayRef{Year: year, Month: month, Day: day}, year == 0)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	utils.SendJSON(w, detail, http.StatusOK)
}

func (h *DashboardHandler) HandleUpdateCalendarState(w http.ResponseWriter, r *http.Request) {
	var cs views.CalendarState
	if !decodeBody(w, r, &cs) {
		return
	}
	cs, err := validateCalendarState(cs)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	if err := h.dashboardService.UpdateCalendarState(chi.URLParam(r, "id"), cs); err != nil {
		h.sendError(w, r, err)
		return
	}
	utils.SendJSON(w, cs, http.StatusOK)
}

// validateCalendarState checks cs and fills in the default glyph type.
func validateCalendarState(cs views.CalendarState) (views.CalendarState, error) {
	glyph, err := views.ParseGlyphType(string(cs.GlyphType))
	if err != nil {
		return cs, err
	}
	cs.GlyphType = glyph
	if cs.CurrentYear != 0 {
		if err := validation.ValidateIntRange(cs.CurrentYear, "currentYear", minYear, maxYear); err != nil {
			return cs, err
		}
	}
	if d := cs.DetailDay; d != nil {
		if err := validation.ValidateIntRange(d.Month, "detailDay.month", 1, 12); err != nil {
			return cs, err
		}
		if err := validation.ValidateIntRange(d.Day, "detailDay.day", 1, 31); err != nil {
			return cs, err
		}
		if !cs.Superpositioned {
			if err := validation.ValidateIntRange(d.Year, "detailDay.year", minYear, maxYear); err != nil {
				return cs, err
			}
		}
	}
	return cs, nil
}

func (h *DashboardHandler) HandleUpdateColours(w http.ResponseWriter, r *http.Request) {
	var cs views.ColourState
	if !decodeBody(w, r, &cs) {
		return
	}
	if err := h.dashboardService.UpdateColours(chi.URLParam(r, "id"), cs); err != nil {
		h.sendError(w, r, err)
		return
	}
	utils.SendJSON(w, cs, http.StatusOK)
}

// HandleGetScatter serves the scatter plot (view=scatter, the default) or the cluster view.
func (h *DashboardHandler) HandleGetScatter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	defaultY := views.AxisTransactionAmount
	if q.Get("view") == "cluster" {
		defaultY = views.AxisFrequency
	}
	x, err := axisParam(q.Get("x"), views.AxisDayOfYear)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	y, err := axisParam(q.Get("y"), defaultY)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	var view *views.ScatterView
	switch q.Get("view") {
	case "", "scatter":
		view, err = views.BuildScatter(snap, x, y, snap.Colours.ScatterPlot)
	case "cluster":
		view, err = views.BuildClusterView(snap, x, y)
	default:
		err = fmt.Errorf("%w: unknown view %q", views.ErrInvalidArgument, q.Get("view"))
	}
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	utils.SendJSON(w, view, http.StatusOK)
}

func (h *DashboardHandler) HandleGetLegends(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	view, err := views.BuildLegends(snap)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	utils.SendJSON(w, view, http.StatusOK)
}

func (h *DashboardHandler) HandleGetTable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope, err := views.ParseTableScope(q.Get("scope"))
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	desc, err := validation.ValidateBoolString(q.Get("desc"), "desc")
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	search, err := validation.ValidateSearchTerm(q.Get("search"))
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	view, err := views.BuildTable(snap, views.TableQuery{Sort: q.Get("sort"), Desc: desc, Search: search, Scope: scope})
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	utils.SendJSON(w, view, http.StatusOK)
}

func (h *DashboardHandler) snapshot(w http.ResponseWriter, r *http.Request) (*views.Snapshot, bool) {
	snap, err := h.dashboardService.Snapshot(chi.URLParam(r, "id"))
	if err != nil {
		h.sendError(w, r, err)
		return nil, false
	}
	return snap, true
}

func (h *DashboardHandler) sendStatus(w http.ResponseWriter, r *http.Request, id string, code int) {
	st, err := h.dashboardService.Status(id)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	utils.SendJSON(w, st, code)
}

// sendError maps the engine's error classes onto HTTP statuses. Consistency violations
// are 409: the view must not be drawn from the current data.
func (h *DashboardHandler) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("Dashboard request failed", "path", r.URL.Path, "error", err)
	}
	utils.SendJSONError(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case services.IsNotFound(err):
		return http.StatusNotFound
	case isAny(err, validation.ErrValidationFailed, selection.ErrInvalidArgument, views.ErrInvalidArgument,
		index.ErrInvalidArgument, aggregation.ErrInvalidArgument):
		return http.StatusBadRequest
	case isAny(err, selection.ErrConsistency, views.ErrConsistency, aggregation.ErrConsistency, models.ErrAmountConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrBackend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		utils.SendJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func requiredInt(s, field string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("%w: %s is required", validation.ErrValidationFailed, field)
	}
	// Range checks belong to the index, which names the valid range in its error.
	return validation.ValidateIntString(s, field, 0, -1<<31, 1<<31-1)
}

func axisParam(s string, fallback views.AxisLabel) (views.AxisLabel, error) {
	if s == "" {
		return fallback, nil
	}
	return views.ParseAxisLabel(s)
}
