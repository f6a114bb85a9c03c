package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"agrimarket/internal/microservices/http-api/models"

	"github.com/go-playground/validator/v10"
)

// Column limits of the notifications table
const (
	maxTitleLen      = 200
	maxMessageLen    = 1000
	maxActionURLLen  = 500
	maxActionTextLen = 50
)

var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so errors match what API clients see
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateRequest normalises req in place and returns the first problem found
func validateRequest(req *CreateNotificationRequest) error {
	req.VendorID = strings.TrimSpace(req.VendorID)
	if req.VendorID == "" {
		return invalid("vendorId", "is required")
	}

	if req.Data == nil {
		return invalid("data", "is required")
	}
	if req.Type == "" {
		req.Type = req.Data.NotificationType()
	}
	if !req.Type.Valid() {
		return invalid("type", fmt.Sprintf("unknown notification type %q", req.Type))
	}
	if req.Data.NotificationType() != req.Type {
		return invalid("data", fmt.Sprintf("%s payload does not belong to type %s", req.Data.NotificationType(), req.Type))
	}
	if err := validatePayload(req.Data); err != nil {
		return err
	}

	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !req.Priority.Valid() {
		return invalid("priority", fmt.Sprintf("must be LOW, MEDIUM or HIGH, got %q", req.Priority))
	}

	if err := checkText("title", req.Title, maxTitleLen, true); err != nil {
		return err
	}
	if err := checkText("message", req.Message, maxMessageLen, true); err != nil {
		return err
	}
	if err := checkText("actionUrl", req.ActionURL, maxActionURLLen, false); err != nil {
		return err
	}
	return checkText("actionText", req.ActionText, maxActionTextLen, false)
}

func validatePayload(p models.Payload) error {
	err := payloadValidator.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return invalid("data."+fe.Field(), describeTag(fe))
	}
	return invalid("data", err.Error())
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "eq":
		return "must equal " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	}
	return "failed " + fe.Tag()
}

func checkText(field, value string, max int, required bool) error {
	if required && strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	if n := utf8.RuneCountInString(value); n > max {
		return invalid(field, fmt.Sprintf("must be at most %d characters, got %d", max, n))
	}
	return nil
}
