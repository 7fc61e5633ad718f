package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"todoapp/internal/auth"
	domainerrors "todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator"
	"github.com/nyaruka/phonenumbers"
)

type errorMapping struct {
	target error
	status int
}

// First match wins.
var errorStatuses = []errorMapping{
	{domainerrors.ErrUnauthorized, http.StatusUnauthorized},
	{domainerrors.ErrInvalidCredentials, http.StatusUnauthorized},
	{domainerrors.ErrIncorrectPassword, http.StatusUnauthorized},
	{domainerrors.ErrForbidden, http.StatusForbidden},
	{domainerrors.ErrValidationFailed, http.StatusUnprocessableEntity},
	{domainerrors.ErrInvalidTaskID, http.StatusUnprocessableEntity},
	{domainerrors.ErrInvalidPhoneNumber, http.StatusUnprocessableEntity},
	{domainerrors.ErrBadRequest, http.StatusBadRequest},
	{domainerrors.ErrTaskNotFound, http.StatusNotFound},
	{domainerrors.ErrUserNotFound, http.StatusNotFound},
	{domainerrors.ErrNotFound, http.StatusNotFound},
	{domainerrors.ErrUserAlreadyExists, http.StatusConflict},
	{domainerrors.ErrConflict, http.StatusConflict},
	{domainerrors.ErrStoreUnavailable, http.StatusServiceUnavailable},
}

// statusFor maps an error to its HTTP status and the detail shown to the
// client. Unknown errors become a bare 500 so internals never leak.
func statusFor(err error) (int, string) {
	for _, m := range errorStatuses {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.status == http.StatusUnprocessableEntity || m.status == http.StatusBadRequest {
			return m.status, err.Error()
		}
		return m.status, m.target.Error()
	}
	return http.StatusInternalServerError, domainerrors.ErrInternalServer.Error()
}

func abortWithError(ctx *gin.Context, err error) {
	status, detail := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "request_id", ctx.GetString(requestIDKey), "path", ctx.Request.URL.Path, "err", err)
	}
	if status == http.StatusUnauthorized {
		ctx.Header("WWW-Authenticate", "Bearer")
	}
	ctx.AbortWithStatusJSON(status, models.ErrorResponse{Detail: detail})
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			if name := strings.SplitN(field.Tag.Get(key), ",", 2)[0]; name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		role := fl.Field().String()
		return strings.EqualFold(role, models.RoleUser) || auth.IsAdmin(role)
	})
	return v
}

// bind decodes the request body with the given binding and validates the
// result. Both kinds of failure are reported as 422.
func (api *TodoAPI) bind(ctx *gin.Context, b binding.Binding, obj any) error {
	if err := ctx.ShouldBindWith(obj, b); err != nil {
		return fmt.Errorf("%w: malformed request body", domainerrors.ErrValidationFailed)
	}
	if err := api.valid.Struct(obj); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domainerrors.ErrValidationFailed, err)
	}

	details := make([]string, 0, len(verrs))
	for _, verr := range verrs {
		rule := verr.Tag()
		if verr.Param() != "" {
			rule += "=" + verr.Param()
		}
		details = append(details, fmt.Sprintf("%s: %s", verr.Field(), rule))
	}
	return fmt.Errorf("%w: %s", domainerrors.ErrValidationFailed, strings.Join(details, "; "))
}

func pathID(ctx *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domainerrors.ErrInvalidTaskID
	}
	return id, nil
}

// normalizePhone parses raw relative to region and returns it in E.164.
func normalizePhone(raw, region string) (string, error) {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domainerrors.ErrInvalidPhoneNumber, err)
	}
	if !phonenumbers.IsPossibleNumber(num) {
		return "", domainerrors.ErrInvalidPhoneNumber
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
