package fault

import (
	"fmt"
	"net/http"
)

const genericMessage = "Something went wrong. Please try again."

// UserMessage renders a Classified failure as one presentable sentence.
// Validation messages pass through verbatim; API failures are bucketed by
// status so the dashboard stays specific without leaking payloads.
func UserMessage(c *Classified) string {
	if c == nil {
		return genericMessage
	}

	switch c.Kind {
	case KindValidation:
		return c.Message
	case KindNetwork:
		return "Unable to reach the prediction service. Check your connection and try again."
	case KindTimeout:
		return "The request took too long to complete. Please try again."
	case KindCancelled:
		return "The request was cancelled."
	case KindAPI:
		return apiMessage(c)
	default:
		return genericMessage
	}
}

func apiMessage(c *Classified) string {
	if c.Code == CodeInvalidResponse {
		return "The prediction service returned data the dashboard could not understand."
	}

	switch {
	case c.HTTPStatus == http.StatusNotFound:
		return "No prediction found for that ticker. Double-check the symbol."
	case c.HTTPStatus == http.StatusTooManyRequests:
		return "Too many requests right now. Please wait a moment and try again."
	case c.HTTPStatus >= http.StatusInternalServerError:
		return "The prediction service hit an internal error. Please try again shortly."
	case c.Message != "":
		return fmt.Sprintf("The prediction service rejected the request: %s.", c.Message)
	default:
		return "The prediction service rejected the request."
	}
}
