package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tokosepatu/backend/internal/domain"
)

func (a *API) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req domain.SaleRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	sale, err := a.service.CreateSale(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"sale": sale})
}

// handleListSales lists every sale, or the sales between ?start and ?end
// (inclusive) when both are given.
func (a *API) handleListSales(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rawStart, rawEnd := strings.TrimSpace(query.Get("start")), strings.TrimSpace(query.Get("end"))

	var (
		sales []domain.SaleRecord
		err   error
	)
	switch {
	case rawStart == "" && rawEnd == "":
		sales, err = a.service.ListSales(r.Context())
	case rawStart == "" || rawEnd == "":
		a.writeError(w, http.StatusBadRequest, errors.New("start and end must be given together"))
		return
	default:
		start, perr := parseRangeBound(rawStart, false)
		if perr != nil {
			a.writeError(w, http.StatusBadRequest, perr)
			return
		}
		end, perr := parseRangeBound(rawEnd, true)
		if perr != nil {
			a.writeError(w, http.StatusBadRequest, perr)
			return
		}
		if end.Before(start) {
			a.writeError(w, http.StatusBadRequest, errors.New("end must not be before start"))
			return
		}
		sales, err = a.service.GetSalesByDateRange(r.Context(), start, end)
	}
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

// parseRangeBound accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseRangeBound(raw string, end bool) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", raw)
	}
	if end {
		return day.Add(24*time.Hour - time.Nanosecond), nil
	}
	return day, nil
}

func (a *API) handleGetSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	sale, ok, err := a.service.GetSaleByID(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	if !ok {
		a.writeServiceError(w, domain.NotFound(domain.EntitySale, id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handleSalesByCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	sales, err := a.service.GetSalesByCustomer(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

func (a *API) handleSalesByEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	sales, err := a.service.GetSalesByEmployee(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

func (a *API) handleCreateRefund(w http.ResponseWriter, r *http.Request) {
	var req domain.RefundRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	refund, err := a.service.CreateRefund(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"refund": refund})
}

func (a *API) handleGetRefund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	refund, ok, err := a.service.GetRefundByID(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	if !ok {
		a.writeServiceError(w, domain.NotFound(domain.EntityRefund, id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"refund": refund})
}

func (a *API) handleGetRefundBySale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	refund, ok, err := a.service.GetRefundBySaleID(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	if !ok {
		a.writeError(w, http.StatusNotFound, fmt.Errorf("sale %d has no refund", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"refund": refund})
}
