package handlers

import (
	"errors"
	"net/http"
	"time"

	"officecrm/internal/apperr"
	"officecrm/internal/auth"
	"officecrm/internal/authz"
	"officecrm/models"
)

type registerRequest struct {
	CompanyName   string `json:"companyName" validate:"required,max=100"`
	ContactPerson string `json:"contactPerson" validate:"required,max=100"`
	Phone         string `json:"phone" validate:"required,max=20"`
	Password      string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createUserRequest struct {
	Phone    string      `json:"phone" validate:"required,max=20"`
	Password string      `json:"password" validate:"required,min=8,max=128"`
	Role     models.Role `json:"role" validate:"required,oneof=admin tenant staff"`
	TenantID *int        `json:"tenantId" validate:"omitempty,gt=0"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// RegisterHandler обрабатывает POST /api/auth/register: арендатор и его учетная запись
// создаются в одной транзакции.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := h.decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	hash, err := h.Hasher.Hash(in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tenant := &models.Tenant{CompanyName: in.CompanyName, ContactPerson: in.ContactPerson, Phone: in.Phone}
	user := &models.User{Phone: in.Phone, PasswordHash: hash}
	if err := h.Store.RegisterTenant(r.Context(), tenant, user); err != nil {
		writeError(w, r, err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user)
}

// LoginHandler обрабатывает POST /api/auth/login
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := h.decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.Store.GetUserByPhone(r.Context(), in.Phone)
	if errors.Is(err, apperr.ErrNotFound) {
		if h.decoyHash != "" {
			h.Hasher.Verify(in.Password, h.decoyHash)
		}
		writeError(w, r, apperr.New(apperr.Unauthorized, "invalid credentials"))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok, err := h.Hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, apperr.New(apperr.Unauthorized, "invalid credentials"))
		return
	}

	h.respondWithToken(w, r, http.StatusOK, user)
}

// LogoutHandler отзывает предъявленный токен до истечения его срока.
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFrom(r.Context())
	if claims == nil {
		writeError(w, r, apperr.New(apperr.Unauthorized, "authentication required"))
		return
	}
	expiresAt := h.today().Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := h.Revoker.Revoke(r.Context(), claims.ID, expiresAt); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MeHandler возвращает учетную запись вызывающего.
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleTenant, models.RoleStaff)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.Store.GetUser(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// CreateUserHandler обрабатывает POST /api/users (только admin).
func (h *Handler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}

	var in createUserRequest
	if err := h.decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	hash, err := h.Hasher.Hash(in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user := &models.User{Phone: in.Phone, PasswordHash: hash, Role: in.Role, TenantID: in.TenantID}
	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	if h.Tokens == nil {
		writeError(w, r, errors.New("token issuer is not configured"))
		return
	}
	token, expiresAt, err := h.Tokens.Issue(&authz.Principal{ID: user.ID, Role: user.Role, TenantID: user.TenantID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, tokenResponse{Token: token, ExpiresAt: expiresAt, User: user})
}
