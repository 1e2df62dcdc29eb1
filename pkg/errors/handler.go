package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Retryable bool                   `json:"retryable,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
}

// ErrorHandler renders failures as ErrorResponse bodies
type ErrorHandler struct {
	logger        *zap.Logger
	debug         bool
	defaultStatus int
}

func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{
		logger:        logger,
		debug:         debug,
		defaultStatus: http.StatusInternalServerError,
	}
}

// Handle writes the response for err. Documentation rule violations keep
// their code and details; anything unclassified becomes a 500 whose message
// is only exposed in debug mode.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	requestID := chimiddleware.GetReqID(r.Context())
	if requestID == "" {
		requestID = r.Header.Get("X-Request-ID")
	}
	response := ErrorResponse{
		Error:     true,
		RequestID: requestID,
		TraceID:   r.Header.Get("X-Trace-ID"),
	}
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("requestID", requestID),
	}

	var status int
	switch domainErr, appErr := GetDomainError(err), GetAppError(err); {
	case domainErr != nil:
		status = domainErr.StatusCode
		response.Type = string(domainErr.Type)
		response.Message = domainErr.Message
		response.Code = domainErr.Code
		response.Details = domainErr.Details
		response.Retryable = domainErr.Retryable
		h.log(domainErr.Message, status, append(fields,
			zap.String("errorCode", domainErr.Code),
			zap.Any("details", domainErr.Details),
			zap.NamedError("cause", domainErr.Cause),
		))

	case appErr != nil:
		status = appErr.HTTPStatus
		if status == 0 {
			status = h.defaultStatus
		}
		response.Type = string(appErr.Type)
		response.Message = appErr.Message
		response.Code = appErr.Code
		response.Details = appErr.Details
		if h.debug && appErr.StackTrace != "" {
			details := make(map[string]interface{}, len(appErr.Details)+1)
			for k, v := range appErr.Details {
				details[k] = v
			}
			details["stack_trace"] = appErr.StackTrace
			response.Details = details
		}
		fields = append(fields, zap.String("errorType", string(appErr.Type)))
		if appErr.Code != "" {
			fields = append(fields, zap.String("errorCode", appErr.Code))
		}
		if appErr.Details != nil {
			fields = append(fields, zap.Any("details", appErr.Details))
		}
		h.log(appErr.Message, status, append(fields, zap.NamedError("cause", appErr.Cause)))

	default:
		status = h.defaultStatus
		response.Type = string(ErrorTypeInternal)
		response.Message = "An internal error occurred"
		if h.debug {
			response.Message = err.Error()
		}
		h.log("Unhandled error", status, append(fields, zap.Error(err)))
	}

	h.sendJSON(w, status, response)
}

func (h *ErrorHandler) log(msg string, status int, fields []zap.Field) {
	fields = append(fields, zap.Int("status", status))
	switch {
	case status >= 500:
		h.logger.Error(msg, fields...)
	case status == http.StatusNotFound:
		h.logger.Debug(msg, fields...)
	default:
		h.logger.Warn(msg, fields...)
	}
}

func (h *ErrorHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode error response",
			zap.Error(err),
			zap.Any("data", data),
		)
	}
}

// Middleware turns a handler panic into a 500 response
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}