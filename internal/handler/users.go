package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/enum"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserStore defines the database methods needed by user handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type UserStore interface {
	ListUsers(ctx context.Context) ([]database.User, error)
	CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error)
	UpdateUserStatus(ctx context.Context, arg database.UpdateUserStatusParams) (database.User, error)
}

// UserHandler manages production staff accounts.
type UserHandler struct {
	store UserStore
}

func NewUserHandler(store UserStore) *UserHandler {
	return &UserHandler{store: store}
}

// RegisterRoutes is mounted at /users.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Patch("/{id}/status", h.UpdateStatus)
}

type createUserRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

type updateUserStatusRequest struct {
	Status string `json:"status"`
}

type userResponse struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	Phone      string     `json:"phone,omitempty"`
	Role       string     `json:"role"`
	Department string     `json:"department,omitempty"`
	Status     string     `json:"status"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

func toUserResponse(u database.User) userResponse {
	resp := userResponse{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		Phone:      optText(u.Phone),
		Role:       u.Role,
		Department: optText(u.Department),
		Status:     u.Status,
	}
	if !u.CreatedAt.IsZero() {
		resp.CreatedAt = &u.CreatedAt
	}
	return resp
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]userResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" || req.FullName == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "email, password, full_name, and role are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "invalid email format")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if _, err := enum.ParseCapability(req.Role, req.Department); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("create user: hash password", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := h.store.CreateUser(r.Context(), database.CreateUserParams{
		Email:          req.Email,
		HashedPassword: string(hashed),
		FullName:       req.FullName,
		Phone:          pgtype.Text{String: req.Phone, Valid: req.Phone != ""},
		Role:           req.Role,
		Department:     pgtype.Text{String: req.Department, Valid: req.Department != ""},
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "email already exists")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// UpdateStatus activates or deactivates a staff member. Inactive staff are
// skipped by auto-assignment and cannot log in.
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	var req updateUserStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status != enum.UserStatusActive && req.Status != enum.UserStatusInactive {
		writeError(w, http.StatusBadRequest, "status must be active or inactive")
		return
	}

	user, err := h.store.UpdateUserStatus(r.Context(), database.UpdateUserStatusParams{ID: userID, Status: req.Status})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
