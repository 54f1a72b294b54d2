package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"classifieds/internal/domain"
	"classifieds/internal/infrastructure/metrics"
	"classifieds/internal/service"
	"classifieds/pkg/logger"
	"classifieds/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type UserHandler struct {
	service service.UserService
	logger  *logger.Loggers
	metrics *metrics.HandlerMetrics
	tracer  trace.Tracer
}

func NewUserHandler(service service.UserService, logger *logger.Loggers, metrics *metrics.HandlerMetrics) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("classifieds/handler"),
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) respondUserError(w http.ResponseWriter, span trace.Span, err error, action string) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.RespondWithFieldErrors(w, verr.Error(), verr.Errors)
		return "invalid"
	case errors.Is(err, service.ErrEmailTaken):
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, err.Error())
		return "conflict"
	case errors.Is(err, service.ErrInvalidCredentials):
		utils.RespondWithErrorJSON(w, http.StatusUnauthorized, err.Error())
		return "unauthorized"
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrNoUsers):
		utils.RespondWithErrorJSON(w, http.StatusNotFound, err.Error())
		return "not_found"
	}

	h.logger.ErrorLogger.Error("failed to "+action, utils.Err(err))
	span.RecordError(err)
	utils.RespondWithErrorJSON(w, http.StatusInternalServerError, "internal server error")
	return "error"
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Register")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		h.metrics.Observe(http.MethodPost, "/users/register", status, startTime)
	}()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "invalid"
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	user, err := h.service.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		status = h.respondUserError(w, span, err, "register user")
		return
	}

	h.logger.InfoLogger.Info("user registered", "id", user.ID)
	utils.RespondWithJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Login")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		h.metrics.Observe(http.MethodPost, "/users/login", status, startTime)
	}()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "invalid"
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		status = h.respondUserError(w, span, err, "log in")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

// CheckUser answers whether the User-Id header names a registered user.
func (h *UserHandler) CheckUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CheckUser")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		h.metrics.Observe(http.MethodGet, "/users/check-user", status, startTime)
	}()

	userID := r.Header.Get(UserIDHeader)
	span.SetAttributes(attribute.String("user.id", userID))

	exists, err := h.service.Exists(ctx, userID)
	if err != nil {
		status = h.respondUserError(w, span, err, "check user")
		return
	}
	if !exists {
		status = "not_found"
		utils.RespondWithJSON(w, http.StatusNotFound, map[string]bool{"exists": false})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"exists": true})
}

func (h *UserHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetAllUsers")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		h.metrics.Observe(http.MethodGet, "/users", status, startTime)
	}()

	users, err := h.service.GetAllUsers(ctx)
	if err != nil {
		status = h.respondUserError(w, span, err, "retrieve users")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetUserByID")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		h.metrics.Observe(http.MethodGet, "/users/{id}", status, startTime)
	}()

	user, err := h.service.GetUserByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		status = h.respondUserError(w, span, err, "get user")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateUser")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		h.metrics.Observe(http.MethodPut, "/users/{id}", status, startTime)
	}()

	var patch domain.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		status = "invalid"
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	user, err := h.service.UpdateUser(ctx, chi.URLParam(r, "id"), patch)
	if err != nil {
		status = h.respondUserError(w, span, err, "update user")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteUser")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		h.metrics.Observe(http.MethodDelete, "/users/{id}", status, startTime)
	}()

	if err := h.service.DeleteUser(ctx, chi.URLParam(r, "id")); err != nil {
		status = h.respondUserError(w, span, err, "delete user")
		return
	}

	utils.RespondNoContent(w)
}
