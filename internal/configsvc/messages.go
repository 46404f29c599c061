package configsvc

import (
	"fmt"

	"clocktower/internal/script"
)

// Outcome labels a save attempt in results, audit entries and metrics.
type Outcome string

const (
	OutcomeSuccess           Outcome = "success"
	OutcomeMalformedInput    Outcome = "malformed_input"
	OutcomeShapeError        Outcome = "shape_error"
	OutcomeNoCharacters      Outcome = "no_characters"
	OutcomeUnknownCharacters Outcome = "unknown_characters"
	OutcomeUnready           Outcome = "unready"
	OutcomeWriteFailed       Outcome = "write_failed"
)

const (
	msgBlank        = "Please enter script before saving"
	msgMalformed    = "Invalid JSON format. Please check your script syntax."
	msgShape        = "Script must be a JSON array"
	msgNoCharacters = "No valid characters found in script"
	msgUnready      = "Extension not ready. Please wait and try again."
)

func savedMessage(count int) string {
	return fmt.Sprintf("Configuration saved successfully! (%d characters)", count)
}

func validMessage(count int) string {
	return fmt.Sprintf("Script is valid! (%d characters)", count)
}

func writeFailedMessage(cause error) string {
	return "Error saving configuration: " + cause.Error()
}

// outcomeOf maps a pipeline error to its outcome and user-facing message.
func outcomeOf(se *script.Error) (Outcome, string) {
	switch se.Kind {
	case script.KindMalformedInput:
		if se.Blank() {
			return OutcomeMalformedInput, msgBlank
		}
		return OutcomeMalformedInput, msgMalformed
	case script.KindShapeError:
		return OutcomeShapeError, msgShape
	case script.KindNoCharacters:
		return OutcomeNoCharacters, msgNoCharacters
	case script.KindUnknownCharacters:
		return OutcomeUnknownCharacters, "Invalid character found in script: " + script.FormatIDs(se.Unknown)
	default:
		return OutcomeMalformedInput, msgMalformed
	}
}
