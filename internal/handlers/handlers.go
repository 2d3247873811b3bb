package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"officecrm/internal/apperr"
	"officecrm/internal/auth"
	"officecrm/internal/authz"
	"officecrm/internal/events"
	"officecrm/internal/logging"
	"officecrm/internal/metrics"
	"officecrm/models"
)

const maxBodyBytes = 1 << 20

// TokenIssuer выпускает токен доступа для принципала.
type TokenIssuer interface {
	Issue(p *authz.Principal) (string, time.Time, error)
}

// Deps собирает зависимости Handler, кроме хранилища.
type Deps struct {
	Tokens  TokenIssuer
	Hasher  auth.PasswordHasher
	Revoker auth.Revoker
	Events  events.Publisher
	Metrics *metrics.Metrics
	// Today возвращает текущую дату; подменяется в тестах.
	Today func() models.Date
}

// Handler оборачивает Storage для доступа к данным
type Handler struct {
	Store    StorageInterface
	Tokens   TokenIssuer
	Hasher   auth.PasswordHasher
	Revoker  auth.Revoker
	Events   events.Publisher
	Metrics  *metrics.Metrics
	today    func() models.Date
	validate *validator.Validate
	// decoyHash проверяется при неизвестном телефоне, чтобы время ответа не выдавало учетные записи
	decoyHash string
}

// NewHandler создает новый Handler
func NewHandler(store StorageInterface, deps Deps) *Handler {
	h := &Handler{
		Store:    store,
		Tokens:   deps.Tokens,
		Hasher:   deps.Hasher,
		Revoker:  deps.Revoker,
		Events:   deps.Events,
		Metrics:  deps.Metrics,
		today:    deps.Today,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	if h.Hasher == nil {
		h.Hasher = auth.NewArgon2Hasher(auth.DefaultArgon2Params)
	}
	if h.Revoker == nil {
		h.Revoker = auth.NopRevoker{}
	}
	if h.Events == nil {
		h.Events = events.NopPublisher{}
	}
	if h.today == nil {
		h.today = models.Today
	}
	decoy, err := h.Hasher.Hash("officecrm-decoy-password")
	if err != nil {
		logging.Op().Warn("decoy password hash", "error", err)
	}
	h.decoyHash = decoy
	return h
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		logging.Op().Warn("ping: storage unavailable", "error", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams парсит limit и offset из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) PaginationParams {
	params := PaginationParams{Limit: 20}
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			params.Limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			params.Offset = o
		}
	}
	return params
}

// principal достает принципала из контекста и проверяет роль.
func (h *Handler) principal(r *http.Request, roles ...models.Role) (*authz.Principal, error) {
	return authz.Authorize(auth.PrincipalFrom(r.Context()), roles...)
}

func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.Invalid, "invalid %s", name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.New(apperr.Invalid, "invalid %s", name)
	}
	return &v, nil
}

func queryDate(r *http.Request, name string) (*models.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, apperr.New(apperr.Invalid, "invalid %s: expected YYYY-MM-DD", name)
	}
	return &d, nil
}

// decode читает JSON тело запроса с ограничением размера и валидирует его.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	// Ограничение размера тела, чтобы избежать DoS
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return apperr.New(apperr.Invalid, "failed to read request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.New(apperr.Invalid, "invalid JSON format")
	}
	return h.check(dst)
}

func (h *Handler) check(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.Invalid, err, "invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return apperr.New(apperr.Invalid, "%s", strings.Join(msgs, "; "))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Op().Debug("write response", "error", err)
	}
}

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Invalid, apperr.InvalidRange:
		return http.StatusBadRequest
	case apperr.Conflict, apperr.InvalidState:
		return http.StatusConflict
	case apperr.ConstraintViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError переводит ошибку в JSON-конверт с HTTP статусом по ее виду.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		logging.Op().Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
	}
	if kind == apperr.Unauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="officecrm"`)
	}
	writeJSON(w, statusFor(kind), errorBody{
		Error:     kind.String(),
		Message:   apperr.Reason(err),
		Retryable: apperr.IsRetryable(err),
	})
}

// reject пишет ошибку и считает отказы по датам и состоянию для броней и договоров.
func (h *Handler) reject(w http.ResponseWriter, r *http.Request, resource string, err error) {
	if h.Metrics != nil {
		switch kind := apperr.KindOf(err); kind {
		case apperr.Conflict, apperr.InvalidRange, apperr.InvalidState:
			h.Metrics.ObserveRejection(resource, kind.String())
		}
	}
	writeError(w, r, err)
}

func (h *Handler) emit(r *http.Request, e events.Event) {
	events.Emit(r.Context(), h.Events, e)
}
