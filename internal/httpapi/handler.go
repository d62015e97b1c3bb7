package httpapi

import (
	"encoding/json"
	"errors"
	"expvar"
	"net/http"
	"strings"
	"time"

	"github.com/julisunkan/ps/internal/models"
	"github.com/julisunkan/ps/internal/pos"
	"github.com/julisunkan/ps/internal/report"
	"github.com/julisunkan/ps/internal/store"
)

type Handler struct {
	pos      *pos.Service
	sessions *SessionManager
	store    store.Store
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionID string `json:"session_id"`
	ExpiresAt string `json:"expires_at"`
	TenantID  string `json:"tenant_id"`
	Username  string `json:"username"`
}

func NewHandler(service *pos.Service, sessions *SessionManager, st store.Store) *Handler {
	return &Handler{pos: service, sessions: sessions, store: st}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/pos", h.handleCreatePOS)
	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.HandleFunc("/api/auth/logout", h.handleLogout)
	mux.HandleFunc("/api/settings", h.handleSettings)
	mux.HandleFunc("/api/products", h.handleProducts)
	mux.HandleFunc("/api/products/", h.handleProduct)
	mux.HandleFunc("/api/sales", h.handleSales)
	mux.HandleFunc("/api/customers", h.handleCustomers)
	mux.HandleFunc("/api/customers/", h.handleCustomer)
	mux.HandleFunc("/api/expenses", h.handleExpenses)
	mux.HandleFunc("/api/expenses/", h.handleExpense)
	mux.HandleFunc("/api/export", h.handleExport)
	mux.HandleFunc("/api/import", h.handleImport)
	mux.HandleFunc("/api/reports/", h.handleReport)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := h.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "store unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleCreatePOS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	result, err := h.pos.Provision(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"tenant_id": result.TenantID,
		"username":  result.Username,
		"password":  result.Password,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req credentialsRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}
	tenantID, err := h.pos.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return
	}
	session := h.sessions.Create(tenantID, req.Username)
	writeJSON(w, http.StatusOK, loginResponse{
		SessionID: session.SessionID,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		TenantID:  session.TenantID,
		Username:  session.Username,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sessionID := sessionIDFromRequest(r); sessionID != "" {
		h.sessions.Delete(sessionID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	switch r.Method {
	case http.MethodGet:
		settings, err := h.pos.Settings(r.Context(), session.TenantID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	case http.MethodPost:
		var update models.SettingsUpdate
		if !decodeRequest(w, r, &update) {
			return
		}
		settings, err := h.pos.UpdateSettings(r.Context(), session.TenantID, update)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	switch r.Method {
	case http.MethodGet:
		products, err := h.pos.ListProducts(r.Context(), session.TenantID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	case http.MethodPost:
		var product models.Product
		if !decodeRequest(w, r, &product) {
			return
		}
		if strings.TrimSpace(product.Name) == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
			return
		}
		created, err := h.pos.CreateProduct(r.Context(), session.TenantID, product)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, created)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleProduct(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	productID := strings.TrimPrefix(r.URL.Path, "/api/products/")
	if productID == "" || strings.Contains(productID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodPut:
		var update models.ProductUpdate
		if !decodeRequest(w, r, &update) {
			return
		}
		updated, err := h.pos.UpdateProduct(r.Context(), session.TenantID, productID, update)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := h.pos.DeleteProduct(r.Context(), session.TenantID, productID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleSales(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	switch r.Method {
	case http.MethodGet:
		sales, err := h.pos.ListSales(r.Context(), session.TenantID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sales)
	case http.MethodPost:
		var sale models.Sale
		if !decodeRequest(w, r, &sale) {
			return
		}
		created, err := h.pos.RecordSale(r.Context(), session.TenantID, sale)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, created)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCustomers(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	switch r.Method {
	case http.MethodGet:
		customers, err := h.pos.ListCustomers(r.Context(), session.TenantID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, customers)
	case http.MethodPost:
		var customer models.Customer
		if !decodeRequest(w, r, &customer) {
			return
		}
		if strings.TrimSpace(customer.Name) == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
			return
		}
		created, err := h.pos.CreateCustomer(r.Context(), session.TenantID, customer)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, created)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCustomer(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	customerID := strings.TrimPrefix(r.URL.Path, "/api/customers/")
	if customerID == "" || strings.Contains(customerID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodPut:
		var update models.CustomerUpdate
		if !decodeRequest(w, r, &update) {
			return
		}
		updated, err := h.pos.UpdateCustomer(r.Context(), session.TenantID, customerID, update)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := h.pos.DeleteCustomer(r.Context(), session.TenantID, customerID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleExpenses(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	switch r.Method {
	case http.MethodGet:
		expenses, err := h.pos.ListExpenses(r.Context(), session.TenantID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, expenses)
	case http.MethodPost:
		var expense models.Expense
		if !decodeRequest(w, r, &expense) {
			return
		}
		if expense.Amount <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "amount must be positive")
			return
		}
		created, err := h.pos.CreateExpense(r.Context(), session.TenantID, expense)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, created)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleExpense(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	expenseID := strings.TrimPrefix(r.URL.Path, "/api/expenses/")
	if expenseID == "" || strings.Contains(expenseID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodPut:
		var update models.ExpenseUpdate
		if !decodeRequest(w, r, &update) {
			return
		}
		updated, err := h.pos.UpdateExpense(r.Context(), session.TenantID, expenseID, update)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := h.pos.DeleteExpense(r.Context(), session.TenantID, expenseID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req credentialsRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	payload, err := h.pos.Export(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Username string             `json:"username"`
		Password string             `json:"password"`
		Data     *pos.ExportPayload `json:"data"`
	}
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Data == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "import payload is required")
		return
	}
	if err := h.pos.Import(r.Context(), strings.TrimSpace(req.Username), req.Password, *req.Data); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	window := strings.TrimPrefix(r.URL.Path, "/api/reports/")
	if window == "" || strings.Contains(window, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	data, err := h.pos.Data(r.Context(), session.TenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	result, err := report.Build(data, window, time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pos.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	case errors.Is(err, pos.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, pos.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, "not_found", "customer not found")
	case errors.Is(err, pos.ErrExpenseNotFound):
		writeError(w, http.StatusNotFound, "not_found", "expense not found")
	case errors.Is(err, store.ErrTenantNotFound):
		writeError(w, http.StatusNotFound, "not_found", "tenant not found")
	case errors.Is(err, pos.ErrInvalidSale):
		writeError(w, http.StatusBadRequest, "invalid_request", "sale must have items with positive quantities")
	case errors.Is(err, pos.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "insufficient_stock", "insufficient stock for sale item")
	case errors.Is(err, pos.ErrInvalidImport):
		writeError(w, http.StatusBadRequest, "invalid_request", "import payload is missing data")
	case errors.Is(err, report.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid_request", "report window must be daily, weekly, or monthly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: responseError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
