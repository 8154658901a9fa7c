package httpapi

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/observability"
	"tokosepatu/backend/internal/service"
	"tokosepatu/backend/internal/xid"
)

const (
	roleAdmin   = "admin"
	roleCashier = "cashier"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	logger        *zap.Logger
	validate      *validator.Validate
	allowedOrigin string
	loginLimiter  *attemptLimiter
	csrfSecret    []byte
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	csrfSecret := make([]byte, 32)
	if _, err := rand.Read(csrfSecret); err != nil {
		logger.Warn("crypto/rand failed, using fallback csrf secret", zap.Error(err))
		csrfSecret = []byte("csrf-fallback-secret-change-me!!")
	}
	return &API{
		service:       svc,
		auth:          auth,
		logger:        logger,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		csrfSecret:    csrfSecret,
	}
}

// csrfTokenForHour computes an HMAC-SHA256 token for the given hour bucket
// (Unix time truncated to the hour), hex-encoded.
func (a *API) csrfTokenForHour(hourBucket int64) string {
	h := hmac.New(sha256.New, a.csrfSecret)
	fmt.Fprintf(h, "%d", hourBucket)
	return hex.EncodeToString(h.Sum(nil))
}

func (a *API) generateCSRFToken() string {
	bucket := time.Now().UTC().Truncate(time.Hour).Unix()
	return a.csrfTokenForHour(bucket)
}

// validateCSRFToken accepts the current and the previous hour bucket.
func (a *API) validateCSRFToken(token string) bool {
	if token == "" {
		return false
	}
	current := time.Now().UTC().Truncate(time.Hour).Unix()
	return hmac.Equal([]byte(token), []byte(a.csrfTokenForHour(current))) ||
		hmac.Equal([]byte(token), []byte(a.csrfTokenForHour(current-3600)))
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	l.entries[key] = append(kept, now)
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/auth/login", a.handleLogin)
	mux.HandleFunc("GET /api/v1/auth/csrf-token", a.handleCSRFToken)
	mux.HandleFunc("POST /api/v1/auth/register", a.requireAuth(a.handleRegister, roleAdmin))
	mux.HandleFunc("GET /api/v1/users", a.requireAuth(a.handleListUsers, roleAdmin))

	mux.HandleFunc("GET /api/v1/products", a.requireAuth(a.handleListProducts, roleCashier, roleAdmin))
	mux.HandleFunc("POST /api/v1/products", a.requireAuth(a.handleCreateProduct, roleAdmin))
	mux.HandleFunc("GET /api/v1/products/low-stock", a.requireAuth(a.handleLowStockProducts, roleCashier, roleAdmin))
	mux.HandleFunc("GET /api/v1/products/code/{code}", a.requireAuth(a.handleGetProductByCode, roleCashier, roleAdmin))
	mux.HandleFunc("GET /api/v1/products/{id}", a.requireAuth(a.handleGetProduct, roleCashier, roleAdmin))
	mux.HandleFunc("PUT /api/v1/products/{id}", a.requireAuth(a.handleUpdateProduct, roleAdmin))
	mux.HandleFunc("DELETE /api/v1/products/{id}", a.requireAuth(a.handleDeleteProduct, roleAdmin))
	mux.HandleFunc("POST /api/v1/products/{id}/restock", a.requireAuth(a.handleRestockProduct, roleAdmin))

	mux.HandleFunc("GET /api/v1/customers", a.requireAuth(a.handleListCustomers, roleCashier, roleAdmin))
	mux.HandleFunc("POST /api/v1/customers", a.requireAuth(a.handleCreateCustomer, roleAdmin))
	mux.HandleFunc("GET /api/v1/customers/{id}", a.requireAuth(a.handleGetCustomer, roleCashier, roleAdmin))
	mux.HandleFunc("PUT /api/v1/customers/{id}", a.requireAuth(a.handleUpdateCustomer, roleAdmin))
	mux.HandleFunc("DELETE /api/v1/customers/{id}", a.requireAuth(a.handleDeleteCustomer, roleAdmin))
	mux.HandleFunc("GET /api/v1/customers/{id}/sales", a.requireAuth(a.handleSalesByCustomer, roleCashier, roleAdmin))

	mux.HandleFunc("GET /api/v1/employees", a.requireAuth(a.handleListEmployees, roleCashier, roleAdmin))
	mux.HandleFunc("POST /api/v1/employees", a.requireAuth(a.handleCreateEmployee, roleAdmin))
	mux.HandleFunc("GET /api/v1/employees/{id}", a.requireAuth(a.handleGetEmployee, roleCashier, roleAdmin))
	mux.HandleFunc("PUT /api/v1/employees/{id}", a.requireAuth(a.handleUpdateEmployee, roleAdmin))
	mux.HandleFunc("DELETE /api/v1/employees/{id}", a.requireAuth(a.handleDeleteEmployee, roleAdmin))
	mux.HandleFunc("GET /api/v1/employees/{id}/sales", a.requireAuth(a.handleSalesByEmployee, roleCashier, roleAdmin))

	mux.HandleFunc("GET /api/v1/suppliers", a.requireAuth(a.handleListSuppliers, roleAdmin))
	mux.HandleFunc("POST /api/v1/suppliers", a.requireAuth(a.handleCreateSupplier, roleAdmin))
	mux.HandleFunc("GET /api/v1/suppliers/{id}", a.requireAuth(a.handleGetSupplier, roleAdmin))
	mux.HandleFunc("PUT /api/v1/suppliers/{id}", a.requireAuth(a.handleUpdateSupplier, roleAdmin))
	mux.HandleFunc("DELETE /api/v1/suppliers/{id}", a.requireAuth(a.handleDeleteSupplier, roleAdmin))

	mux.HandleFunc("POST /api/v1/sales", a.requireAuth(a.handleCreateSale, roleCashier, roleAdmin))
	mux.HandleFunc("GET /api/v1/sales", a.requireAuth(a.handleListSales, roleCashier, roleAdmin))
	mux.HandleFunc("GET /api/v1/sales/{id}", a.requireAuth(a.handleGetSale, roleCashier, roleAdmin))
	mux.HandleFunc("GET /api/v1/sales/{id}/refund", a.requireAuth(a.handleGetRefundBySale, roleCashier, roleAdmin))

	mux.HandleFunc("POST /api/v1/refunds", a.requireAuth(a.handleCreateRefund, roleCashier, roleAdmin))
	mux.HandleFunc("GET /api/v1/refunds/{id}", a.requireAuth(a.handleGetRefund, roleCashier, roleAdmin))

	mux.HandleFunc("GET /api/v1/dashboard/summary", a.requireAuth(a.handleDashboard, roleAdmin))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			a.writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			a.writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			a.writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleCSRFToken returns a stateless token valid for the current hour bucket.
// Mutating requests carry it in X-CSRF-Token.
func (a *API) handleCSRFToken(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": a.generateCSRFToken(),
	})
}

var csrfExemptPaths = []string{
	"/api/v1/auth/login",
}

func (a *API) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return true
	}
	for _, exempt := range csrfExemptPaths {
		if r.URL.Path == exempt {
			return true
		}
	}
	token := strings.TrimSpace(r.Header.Get("X-CSRF-Token"))
	if !a.validateCSRFToken(token) {
		a.writeError(w, http.StatusForbidden, errors.New("missing or invalid CSRF token"))
		return false
	}
	return true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-CSRF-Token, X-Request-ID")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" || len(requestID) > 64 {
			requestID = xid.RequestID()
		}
		w.Header().Set("X-Request-ID", requestID)

		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if !a.checkCSRF(w, r) {
			return
		}

		startedAt := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(startedAt)

		// the mux records the matched pattern on r
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		observability.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		observability.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		a.logger.Debug("http request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed),
		)
	})
}

// decodeAndValidate strictly decodes a JSON body and runs the struct tags.
func (a *API) decodeAndValidate(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	if err := a.validate.Struct(dest); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("field %s failed %s validation", fe.Namespace(), fe.Tag())
		}
		return err
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// statusFor maps business error kinds to HTTP statuses. Anything that is not
// a *domain.Error is an infrastructure failure.
func statusFor(err error) int {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		return http.StatusInternalServerError
	}
	switch derr.Kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict, domain.KindAlreadyRefunded, domain.KindInsufficientStock:
		return http.StatusConflict
	case domain.KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	a.writeError(w, statusFor(err), err)
}

func (a *API) writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies never carry internal details.
	msg := err.Error()
	if status >= 500 {
		a.logger.Error("internal error", zap.Int("status", status), zap.Error(err))
		msg = "internal server error"
	}
	body := map[string]any{"error": msg}
	var derr *domain.Error
	if errors.As(err, &derr) {
		body["kind"] = derr.Kind
		if derr.ProductCode != "" {
			body["product_code"] = derr.ProductCode
		}
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
