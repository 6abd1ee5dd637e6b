package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schemad/internal/credit"
	"schemad/internal/schema"
	"schemad/internal/user"
)

// SchemaAPI is the schema service surface consumed by the HTTP layer.
type SchemaAPI interface {
	AddColumn(ctx context.Context, table string, col schema.ColumnDefinition) (*schema.MutationResult, error)
	DropColumn(ctx context.Context, table, column string) (*schema.MutationResult, error)
	CreateTable(ctx context.Context, table string, columns []schema.ColumnDefinition) (*schema.MutationResult, error)
	TableInfo(ctx context.Context, table string) (*schema.TableInfo, error)
	AllTables(ctx context.Context) ([]schema.TableSummary, error)
}

// CreditAPI is the credit service surface consumed by the HTTP layer.
type CreditAPI interface {
	Balance(ctx context.Context, userID int64) (*credit.Account, error)
	Add(ctx context.Context, userID, amount int64) (*credit.Account, error)
	Deduct(ctx context.Context, userID, amount int64) (*credit.Account, error)
	Reset(ctx context.Context, userID int64) (*credit.Account, error)
}

// UserAPI is the user service surface consumed by the HTTP layer.
type UserAPI interface {
	Create(ctx context.Context, email, name string) (*user.User, error)
	Get(ctx context.Context, userID int64) (*user.User, error)
}

// Pinger checks database connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler maps HTTP requests to service calls and owns the error-to-status
// mapping. Services raise semantic errors only.
type Handler struct {
	appName string
	schema  SchemaAPI
	credits CreditAPI
	users   UserAPI
	pinger  Pinger
	logger  *slog.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(appName string, schemaSvc SchemaAPI, creditSvc CreditAPI, userSvc UserAPI, pinger Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		appName: appName,
		schema:  schemaSvc,
		credits: creditSvc,
		users:   userSvc,
		pinger:  pinger,
		logger:  logger,
	}
}

// Routes builds the router with middleware and all API routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(RequestLogger(h.logger))
	r.Use(Metrics)
	r.Use(middleware.Recoverer)

	r.Get("/", h.welcome)
	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/credits", func(r chi.Router) {
			r.Get("/{userID}", h.getBalance)
			r.Post("/{userID}/add", h.addCredits)
			r.Post("/{userID}/deduct", h.deductCredits)
			r.Patch("/{userID}/reset", h.resetCredits)
		})
		r.Route("/schema", func(r chi.Router) {
			r.Post("/update", h.updateSchema)
			r.Delete("/table/{table}/column/{column}", h.dropColumn)
			r.Get("/tables", h.listTables)
			r.Get("/table/{table}", h.tableSchema)
		})
		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.createUser)
			r.Get("/{userID}", h.getUser)
		})
	})

	return r
}

// response is the envelope all endpoints share.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	SQL     string `json:"sql_executed,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, status, response{Success: false, Message: msg, Error: msg})
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.writeJSON(w, http.StatusBadRequest, response{Success: false, Message: msg, Error: msg})
}

func (h *Handler) welcome(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: fmt.Sprintf("Welcome to %s", h.appName),
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, response{
			Success: false,
			Message: "database unreachable",
		})
		return
	}
	h.writeJSON(w, http.StatusOK, response{Success: true, Message: "healthy"})
}

// userIDParam parses the {userID} path segment.
func userIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}

// amountRequest is the body of credit add/deduct calls.
type amountRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}

	acct, err := h.credits.Balance(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response{Success: true, Message: "Balance retrieved successfully", Data: acct})
}

func (h *Handler) addCredits(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.Amount <= 0 {
		h.badRequest(w, "amount must be positive")
		return
	}

	acct, err := h.credits.Add(r.Context(), id, req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response{Success: true, Message: "Credits added successfully", Data: acct})
}

func (h *Handler) deductCredits(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.Amount <= 0 {
		h.badRequest(w, "amount must be positive")
		return
	}

	acct, err := h.credits.Deduct(r.Context(), id, req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response{Success: true, Message: "Credits deducted successfully", Data: acct})
}

func (h *Handler) resetCredits(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}

	acct, err := h.credits.Reset(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response{Success: true, Message: "Credits reset successfully", Data: acct})
}

// schemaUpdateRequest carries the tagged schema operation. Fields beyond the
// operation and table name are required per variant, checked below.
type schemaUpdateRequest struct {
	Operation        schema.OperationType      `json:"operation"`
	TableName        string                    `json:"table_name"`
	ColumnDefinition *schema.ColumnDefinition  `json:"column_definition,omitempty"`
	ColumnName       string                    `json:"column_name,omitempty"`
	Columns          []schema.ColumnDefinition `json:"columns,omitempty"`
}

func (h *Handler) updateSchema(w http.ResponseWriter, r *http.Request) {
	var req schemaUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.TableName == "" {
		h.badRequest(w, "table_name required")
		return
	}

	switch req.Operation {
	case schema.OpAddColumn:
		if req.ColumnDefinition == nil {
			h.badRequest(w, "column_definition required for add_column")
			return
		}
		res, err := h.schema.AddColumn(r.Context(), req.TableName, *req.ColumnDefinition)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, response{
			Success: true,
			Message: "Column added successfully",
			Data:    res,
			SQL:     res.SQL,
		})

	case schema.OpDropColumn:
		if req.ColumnName == "" {
			h.badRequest(w, "column_name required for drop_column")
			return
		}
		res, err := h.schema.DropColumn(r.Context(), req.TableName, req.ColumnName)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, response{
			Success: true,
			Message: "Column dropped successfully",
			Data:    res,
			SQL:     res.SQL,
		})

	case schema.OpCreateTable:
		if len(req.Columns) == 0 {
			h.badRequest(w, "columns required for create_table")
			return
		}
		res, err := h.schema.CreateTable(r.Context(), req.TableName, req.Columns)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, response{
			Success: true,
			Message: "Table created successfully",
			Data:    res,
			SQL:     res.SQL,
		})

	case schema.OpGetSchema:
		info, err := h.schema.TableInfo(r.Context(), req.TableName)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, response{
			Success: true,
			Message: "Schema retrieved successfully",
			Data:    info,
		})

	default:
		h.badRequest(w, fmt.Sprintf("unknown operation %q", string(req.Operation)))
	}
}

func (h *Handler) dropColumn(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	column := chi.URLParam(r, "column")

	res, err := h.schema.DropColumn(r.Context(), table, column)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: fmt.Sprintf("Column %s dropped from %s", column, table),
		Data:    res,
		SQL:     res.SQL,
	})
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.schema.AllTables(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Tables retrieved successfully",
		Data:    map[string]any{"tables": tables},
	})
}

func (h *Handler) tableSchema(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	info, err := h.schema.TableInfo(r.Context(), table)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Schema retrieved successfully",
		Data:    info,
	})
}

// createUserRequest is the body of POST /api/users/.
type createUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Name == "" {
		h.badRequest(w, "email and name are required")
		return
	}

	u, err := h.users.Create(r.Context(), req.Email, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, response{Success: true, Message: "User created successfully", Data: u})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}

	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response{Success: true, Message: "User retrieved successfully", Data: u})
}
