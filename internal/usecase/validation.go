package usecase

import "fmt"

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateScoreInput(input LeadScoreInput) []ValidationError {
	var errors []ValidationError

	if input.ResponseCount < 0 {
		errors = append(errors, ValidationError{"response_count", "must not be negative"})
	}
	if input.MessagesSent < 0 {
		errors = append(errors, ValidationError{"messages_sent", "must not be negative"})
	}
	if input.LastResponse != nil && input.ResponseCount == 0 {
		errors = append(errors, ValidationError{"response_count", "must be positive when last_response is set"})
	}

	return errors
}
