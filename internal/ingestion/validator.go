package ingestion

import (
	"fmt"

	"uld-tracker/pkg/utils"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}

func ValidateTelemetry(msg *TelemetryMessage) error {
	if msg.ULDID == "" {
		return &ValidationError{Field: "uldId", Message: "uldId is required in the payload or topic"}
	}
	if len(msg.ULDID) > 32 {
		return &ValidationError{Field: "uldId", Message: "uldId must be at most 32 characters"}
	}

	if msg.Location == nil && msg.Sensors == nil && msg.Status == nil {
		return &ValidationError{Field: "payload", Message: "report carries no location, sensors or status"}
	}

	if err := utils.ValidateStruct(&msg.ReportTelemetryRequest); err != nil {
		return &ValidationError{Field: "payload", Message: utils.ValidationMessage(err)}
	}

	return nil
}
