package common

// Messages returned by the form endpoint
const (
	MsgEmailSent          = "Email has been sent"
	MsgInvalidOrigin      = "Invalid Origin"
	MsgVerificationFailed = "Human Verification has failed"
	MsgMissingFields      = "Missing required fields"
	MsgInvalidFormType    = "Invalid form type: %s"
	MsgInvalidBody        = "Invalid request body"
	MsgRelayFailed        = "Unable to send an email...\n%v"
	MsgInternalError      = "Internal server error"
)

// MessageResponse is the body of every JSON response
type MessageResponse struct {
	Message string `json:"message"`
}

// NewMessageResponse creates a new message response
func NewMessageResponse(message string) MessageResponse {
	return MessageResponse{
		Message: message,
	}
}
