package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"classifieds/internal/delivery/schema"
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

// UserIDHeader identifies the caller when the body does not.
const UserIDHeader = "User-Id"

const maxBodyBytes = 1 << 20

type AdHandler struct {
	service service.AdService
	schemas *schema.Validator
	logger  *logger.Loggers
	metrics *metrics.HandlerMetrics
	tracer  trace.Tracer
}

func NewAdHandler(service service.AdService, schemas *schema.Validator, logger *logger.Loggers, metrics *metrics.HandlerMetrics) *AdHandler {
	return &AdHandler{
		service: service,
		schemas: schemas,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("classifieds/handler"),
	}
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

// respondAdError writes the response for a service error and returns the
// metrics status label.
func (h *AdHandler) respondAdError(w http.ResponseWriter, span trace.Span, err error, action string) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.RespondWithFieldErrors(w, verr.Error(), verr.Errors)
		return "invalid"
	case errors.Is(err, service.ErrInvalidID),
		errors.Is(err, service.ErrInvalidType),
		errors.Is(err, service.ErrInvalidUser),
		errors.Is(err, service.ErrMissingUserID),
		errors.Is(err, domain.ErrInvalidPatch):
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, err.Error())
		return "invalid"
	case errors.Is(err, service.ErrForbidden):
		utils.RespondWithErrorJSON(w, http.StatusForbidden, err.Error())
		return "forbidden"
	case errors.Is(err, service.ErrAdNotFound):
		utils.RespondWithErrorJSON(w, http.StatusNotFound, err.Error())
		return "not_found"
	}

	h.logger.ErrorLogger.Error("failed to "+action, utils.Err(err))
	span.RecordError(err)
	utils.RespondWithErrorJSON(w, http.StatusInternalServerError, "internal server error")
	return "error"
}

func (h *AdHandler) respondSchemaError(w http.ResponseWriter, err error) {
	var serr *schema.Error
	if errors.As(err, &serr) {
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, serr.Error())
		return
	}
	utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
}

func (h *AdHandler) GetAdByID(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetAdByID")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		h.metrics.Observe(http.MethodGet, "/items/{id}", status, startTime)
	}()

	id, ok := parseID(r)
	if !ok {
		status = "invalid"
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	span.SetAttributes(attribute.Int64("ad.id", id))

	ad, err := h.service.GetAdByID(ctx, id)
	if err != nil {
		status = h.respondAdError(w, span, err, "get ad by ID")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ad)
}

func (h *AdHandler) GetAllAds(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetAllAds")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		h.metrics.Observe(http.MethodGet, "/items", status, startTime)
	}()

	ads, err := h.service.GetAllAds(ctx)
	if err != nil {
		status = h.respondAdError(w, span, err, "retrieve ads")
		return
	}
	if ads == nil {
		ads = []*domain.Ad{}
	}

	utils.RespondWithJSON(w, http.StatusOK, ads)
}

func (h *AdHandler) GetAdsByOwner(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetAdsByOwner")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		h.metrics.Observe(http.MethodGet, "/items/user/{userId}", status, startTime)
	}()

	userID := chi.URLParam(r, "userId")
	span.SetAttributes(attribute.String("user.id", userID))

	result, err := h.service.GetAdsByOwner(ctx, userID)
	if err != nil {
		status = h.respondAdError(w, span, err, "retrieve owner ads")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *AdHandler) CreateAd(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateAd")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		h.metrics.Observe(http.MethodPost, "/items", status, startTime)
	}()

	body, err := readBody(w, r)
	if err != nil {
		status = "invalid"
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := h.schemas.Validate(schema.CreateAd, body); err != nil {
		status = "invalid"
		h.logger.DebugLogger.Debug("rejected ad payload", utils.Err(err))
		h.respondSchemaError(w, err)
		return
	}

	var adReq domain.Ad
	if err := json.Unmarshal(body, &adReq); err != nil {
		status = "invalid"
		span.RecordError(err)
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	span.SetAttributes(
		attribute.String("ad.name", adReq.Name),
		attribute.String("ad.type", string(adReq.Type)),
		attribute.Float64("ad.price", adReq.Price),
	)

	createdAd, err := h.service.CreateAd(ctx, &adReq)
	if err != nil {
		status = h.respondAdError(w, span, err, "create ad")
		return
	}

	h.logger.InfoLogger.Info("ad created", "id", createdAd.ID, "type", createdAd.Type, "user_id", createdAd.UserID)
	utils.RespondWithJSON(w, http.StatusCreated, createdAd)
}

// callerID prefers the userId in the body over the User-Id header.
func callerID(r *http.Request, fromBody string) string {
	if strings.TrimSpace(fromBody) != "" {
		return fromBody
	}
	return r.Header.Get(UserIDHeader)
}

func (h *AdHandler) UpdateAd(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateAd")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		h.metrics.Observe(http.MethodPut, "/items/{id}", status, startTime)
	}()

	id, ok := parseID(r)
	if !ok {
		status = "invalid"
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	span.SetAttributes(attribute.Int64("ad.id", id))

	body, err := readBody(w, r)
	if err != nil {
		status = "invalid"
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := h.schemas.Validate(schema.PatchAd, body); err != nil {
		status = "invalid"
		h.respondSchemaError(w, err)
		return
	}

	var patch domain.Patch
	if err := json.Unmarshal(body, &patch); err != nil {
		status = "invalid"
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	var bodyUserID string
	if raw, ok := patch["userId"]; ok {
		_ = json.Unmarshal(raw, &bodyUserID)
	}

	updatedAd, err := h.service.UpdateAd(ctx, id, callerID(r, bodyUserID), patch)
	if err != nil {
		status = h.respondAdError(w, span, err, "update ad")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updatedAd)
}

func (h *AdHandler) DeleteAd(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteAd")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		h.metrics.Observe(http.MethodDelete, "/items/{id}", status, startTime)
	}()

	id, ok := parseID(r)
	if !ok {
		status = "invalid"
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	span.SetAttributes(attribute.Int64("ad.id", id))

	var req struct {
		UserID string `json:"userId"`
	}
	body, err := readBody(w, r)
	if err != nil {
		status = "invalid"
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			status = "invalid"
			utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
			return
		}
	}

	if err := h.service.DeleteAd(ctx, id, callerID(r, req.UserID)); err != nil {
		status = h.respondAdError(w, span, err, "delete ad")
		return
	}

	h.logger.InfoLogger.Info("ad deleted", "id", id)
	utils.RespondNoContent(w)
}
