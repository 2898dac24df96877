package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/schoolhub/school-admin-hub/internal/application/command"
	"github.com/schoolhub/school-admin-hub/internal/application/query"
	"github.com/schoolhub/school-admin-hub/internal/domain/academics"
	"github.com/schoolhub/school-admin-hub/internal/domain/fees"
	"github.com/schoolhub/school-admin-hub/internal/domain/tenant"
	"github.com/schoolhub/school-admin-hub/pkg/logger"
	"github.com/schoolhub/school-admin-hub/pkg/timeutil"
)

type handler struct {
	deps Dependencies
	log  *logger.Logger
}

// identityCtxKey carries the authenticated tenant identity set by the auth
// collaborator.
type identityCtxKey struct{}

// Identity headers honored only when TrustIdentityHeaders is enabled, for
// development against a bare server without the auth collaborator.
const (
	HeaderSchoolID   = "X-School-ID"
	HeaderSchoolCode = "X-School-Code"
)

// WithIdentity returns a context carrying the caller's tenant identity.
// Exposed for the auth middleware collaborator and for tests.
func WithIdentity(ctx context.Context, ident tenant.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, ident)
}

// identityFrom extracts the session tenant from the context. The header
// fallback is unauthenticated input and stays disabled unless explicitly
// trusted; the reporting surface must never accept a tenant identifier from
// the request itself.
func identityFrom(r *http.Request, trustHeaders bool) (tenant.Identity, bool) {
	if ident, ok := r.Context().Value(identityCtxKey{}).(tenant.Identity); ok {
		return ident, true
	}
	if !trustHeaders {
		return tenant.Identity{}, false
	}

	code := r.Header.Get(HeaderSchoolCode)
	idStr := r.Header.Get(HeaderSchoolID)
	if code == "" || idStr == "" {
		return tenant.Identity{}, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return tenant.Identity{}, false
	}
	return tenant.Identity{ID: id, Code: tenant.NormalizeCode(code)}, true
}

// withIdentity guards a session-scoped route.
func (h *handler) withIdentity(next func(w http.ResponseWriter, r *http.Request, ident tenant.Identity)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := identityFrom(r, h.deps.TrustIdentityHeaders)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing tenant identity")
			return
		}
		next(w, r, ident)
	}
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// filterFromQuery reads the common report filter parameters.
func filterFromQuery(r *http.Request) (fees.Filter, error) {
	q := r.URL.Query()
	f := fees.Filter{
		AcademicYear: q.Get("academic_year"),
		Class:        q.Get("class"),
		Section:      q.Get("section"),
		Status:       q.Get("status"),
	}

	if v := q.Get("from"); v != "" {
		t, err := timeutil.ParseDate(v)
		if err != nil {
			return f, err
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := timeutil.ParseDate(v)
		if err != nil {
			return f, err
		}
		end := timeutil.EndOfDay(t)
		f.To = &end
	}

	return f, nil
}

func (h *handler) schoolSummary(w http.ResponseWriter, r *http.Request, ident tenant.Identity) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date filter")
		return
	}

	dto, err := h.deps.Reports.SchoolSummary(r.Context(), ident, f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *handler) classAnalysis(w http.ResponseWriter, r *http.Request, ident tenant.Identity) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date filter")
		return
	}

	groups, err := h.deps.Reports.ClassWiseAnalysis(r.Context(), ident, f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *handler) paymentTrends(w http.ResponseWriter, r *http.Request, ident tenant.Identity) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date filter")
		return
	}

	period := timeutil.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = timeutil.PeriodMonthly
	}

	series, err := h.deps.Reports.PaymentTrends(r.Context(), ident, f, period)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *handler) duesExport(w http.ResponseWriter, r *http.Request, ident tenant.Identity) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date filter")
		return
	}

	page := intQuery(r, "page", 1)
	pageSize := intQuery(r, "page_size", 50)

	dto, err := h.deps.Reports.DuesExport(r.Context(), ident, f, page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *handler) duesExportCSV(w http.ResponseWriter, r *http.Request, ident tenant.Identity) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date filter")
		return
	}

	// CSV export carries the full filtered set, never a page of it.
	rows, err := h.deps.Reports.DuesRows(r.Context(), ident, f)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="dues-export.csv"`)
	if err := query.WriteDuesCSV(w, rows); err != nil {
		// Status is already committed; the broken stream is all we can report.
		h.log.Warn("dues csv write failed", logger.Err(err))
	}
}

func (h *handler) getAcademicYear(w http.ResponseWriter, r *http.Request, ident tenant.Identity) {
	year, err := h.deps.Settings.GetAcademicYear(r.Context(), ident)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, year)
}

type academicYearRequest struct {
	CurrentYear string  `json:"current_year"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
}

func (h *handler) updateAcademicYear(w http.ResponseWriter, r *http.Request, ident tenant.Identity) {
	var req academicYearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update := command.AcademicYearUpdate{CurrentYear: req.CurrentYear}
	if req.StartDate != nil {
		t, err := timeutil.ParseDate(*req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		update.StartDate = &t
	}
	if req.EndDate != nil {
		t, err := timeutil.ParseDate(*req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date")
			return
		}
		update.EndDate = &t
	}

	if err := h.deps.Settings.UpdateAcademicYear(r.Context(), ident, update); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

type updateClassesRequest struct {
	Classes []string `json:"classes"`
}

func (h *handler) updateClasses(w http.ResponseWriter, r *http.Request, ident tenant.Identity) {
	var req updateClassesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.deps.Settings.UpdateClasses(r.Context(), ident, req.Classes); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

type scoringRequest struct {
	Updates []struct {
		TestID    string  `json:"test_id"`
		MaxMarks  int     `json:"max_marks"`
		Weightage float64 `json:"weightage"`
	} `json:"updates"`
}

func (h *handler) updateScoring(w http.ResponseWriter, r *http.Request, ident tenant.Identity) {
	var req scoringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updates := make([]academics.ScoringUpdate, 0, len(req.Updates))
	for _, u := range req.Updates {
		updates = append(updates, academics.ScoringUpdate{
			TestID:    u.TestID,
			MaxMarks:  u.MaxMarks,
			Weightage: u.Weightage,
		})
	}

	result, err := h.deps.Scoring.UpdateTestScoring(r.Context(), ident, updates)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": result.Succeeded(),
		"result":  result,
	})
}

type backfillRequest struct {
	FieldPath string `json:"field_path"`
	Value     string `json:"value"`
	UpdatedBy string `json:"updated_by"`
}

func (h *handler) adminBackfill(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	var req backfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	modified, err := h.deps.Backfill.StudentField(r.Context(), code, req.FieldPath, req.Value, req.UpdatedBy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"modified": modified})
}

func (h *handler) adminInvalidate(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	h.deps.Invalidator.Invalidate(code)
	writeJSON(w, http.StatusOK, map[string]bool{"invalidated": true})
}

func intQuery(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
