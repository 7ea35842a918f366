package dto

// Error codes carried in the response envelope.
const (
	CodeValidationFailed   = "validation_failed"
	CodeNotFound           = "not_found"
	CodeInvalidTransition  = "invalid_transition"
	CodePersistenceError   = "persistence_error"
	CodeProvisioningFailed = "provisioning_failed"
	CodeCompensationFailed = "compensation_failed"
)

// Envelope is the uniform response wrapper used by every endpoint.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data"`
	Error   *ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func Err(code, message string) Envelope {
	return Envelope{Success: false, Error: &ErrorBody{Code: code, Message: message}}
}
