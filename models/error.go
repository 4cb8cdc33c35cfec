package models

// ErrorMessageResponse is the JSON body written for every failed request
type ErrorMessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// MessageResponse is a plain acknowledgement body
type MessageResponse struct {
	Message string `json:"message"`
}
