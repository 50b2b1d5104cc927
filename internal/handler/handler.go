package handler

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"requestdesk/internal/middleware"
	"requestdesk/internal/model"
	"requestdesk/internal/service"
	"requestdesk/internal/storage"
	"requestdesk/internal/workflow"
	"requestdesk/pkg/response"
)

const internalErrorMessage = "Something went wrong. Please try again."

func enumValidator[T ~string](values []T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(values, T(fl.Field().String()))
	}
}

// RegisterValidators adds the enum tags used by the service DTOs to gin's
// validator engine.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	tags := map[string]validator.Func{
		"request_type":   enumValidator(model.RequestTypes),
		"priority":       enumValidator(model.Priorities),
		"request_status": enumValidator(model.RequestStatuses),
		"job_status":     enumValidator(model.JobStatuses),
		"role":           enumValidator(model.Roles),
		"asset_status":   enumValidator(model.AssetStatuses),
		"item_status":    enumValidator(model.ItemStatuses),
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gtfield":
		return "must be after " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "datetime":
		return "must be a date formatted " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid id"
	}
	return "is not a valid " + strings.ReplaceAll(fe.Tag(), "_", " ")
}

// bindError answers a failed ShouldBind* call.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		c.JSON(http.StatusBadRequest, response.ValidationError(http.StatusBadRequest, fields))
		return
	}
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
}

// respondError maps service and workflow errors onto HTTP statuses. Anything
// unrecognised is logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var wfErr *workflow.Error
	switch {
	case errors.As(err, &wfErr):
		switch wfErr.Kind {
		case workflow.KindForbidden:
			status = http.StatusForbidden
		case workflow.KindConflict:
			status = http.StatusConflict
		default:
			status = http.StatusUnprocessableEntity
		}
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, storage.ErrDisabled):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		c.JSON(status, response.Error(status, internalErrorMessage))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}

// actor returns the authenticated caller, answering 401 when there is none.
func actor(c *gin.Context) (workflow.Actor, bool) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
	}
	return a, ok
}

// pathID parses a uuid path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// optionalID parses an optional uuid query parameter.
func optionalID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name))
		return nil, false
	}
	return &id, true
}
