package handler

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"classboard/internal/middleware"
	"classboard/pkg/errors"
	"classboard/pkg/logger"
)

const maxBodyBytes = 64 << 10

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// SuccessResponse wraps every successful JSON payload
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessResponse{Success: true, Data: data})
}

// respondError maps err to the JSON error envelope. Anything that is not an
// AppError is reported as an internal error without leaking its text.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewInternalError("Internal server error", err)
	}

	entry := log.WithError(err).WithFields(map[string]interface{}{
		"request_id": middleware.RequestIDFrom(r.Context()),
		"path":       r.URL.Path,
		"status":     appErr.StatusCode,
	})
	if appErr.StatusCode >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.RequestID = middleware.RequestIDFrom(r.Context())
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewValidationError("Invalid request body", map[string]interface{}{
			"reason": err.Error(),
		})
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewValidationError("Invalid request", nil)
	}
	fields := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return errors.NewValidationError("Invalid request", map[string]interface{}{"fields": fields})
}

func generateETag(data interface{}) string {
	jsonData, _ := json.Marshal(data)
	hash := md5.Sum(jsonData)
	return fmt.Sprintf(`"%x"`, hash)
}
