package ingestion

import (
	"cargo-tracker/internal/domain/gps"
	"cargo-tracker/pkg/utils"
)

// ValidateLocation range-checks a location sample.
func ValidateLocation(loc *gps.Location) error {
	if loc == nil {
		return &gps.ValidationError{Field: "data", Message: "location data is required"}
	}
	return toValidationError(utils.ValidateStruct(loc))
}

// ValidateStatus range-checks a status update.
func ValidateStatus(update *gps.StatusUpdate) error {
	return toValidationError(utils.ValidateStruct(update))
}

// ValidateRegister checks a register message.
func ValidateRegister(msg *RegisterMessage) error {
	return toValidationError(utils.ValidateStruct(msg))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	if field, message, ok := utils.FirstFieldError(err); ok {
		return &gps.ValidationError{Field: field, Message: message}
	}
	return &gps.ValidationError{Field: "payload", Message: err.Error()}
}
