package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Freeeeeet/mentor_sessions/internal/httpapi/middleware"
	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/Freeeeeet/mentor_sessions/internal/service"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError переводит ошибку движка в HTTP-ответ.
// Сбои зависимостей и внутренние ошибки клиенту не раскрываются.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch svcErr.Kind {
	case service.KindNotFound:
		writeError(w, http.StatusNotFound, svcErr.Message)
	case service.KindPermission:
		writeError(w, http.StatusForbidden, svcErr.Message)
	case service.KindValidation:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: svcErr.Message, Field: svcErr.Field})
	case service.KindInvalidOperation:
		writeError(w, http.StatusUnprocessableEntity, svcErr.Message)
	case service.KindConflict:
		writeError(w, http.StatusConflict, svcErr.Message)
	case service.KindDependencyTimeout:
		logger.Warn("Dependency timeout",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusGatewayTimeout, "upstream service unavailable, try again later")
	default:
		logger.Error("Unhandled service error", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON читает тело запроса в dst, неизвестные поля запрещены
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeBody(w, r, dst, true)
}

// decodeLenientJSON для внешних вебхуков: лишние поля игнорируются
func decodeLenientJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeBody(w, r, dst, false)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, strict bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		writeError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

// actorID ID пользователя из JWT. Без него ответ 401.
func actorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return id, true
}

// pathID разбирает {id} из пути
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid id %q", raw), Field: "id"})
		return 0, false
	}
	return id, true
}

// sessionResponse сессия вместе с отображаемым статусом
func sessionResponse(s *model.Session) model.BookingView {
	return model.NewSessionBooking(model.SessionView{Session: *s}, service.ProjectSessionStatus(s.Status, s.PaymentID))
}

// NewHealthHandler liveness
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
