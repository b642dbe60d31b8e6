package model

// ErrorResponse is the JSON error envelope returned by every endpoint
type ErrorResponse struct {
	Error string `json:"error"`
}

// SaveHistoryRequest is the body of POST /history
type SaveHistoryRequest struct {
	DeviceID string   `json:"device_id" validate:"required"`
	Location Location `json:"location"`
}

// SaveHistoryResponse reports whether a new record was created
type SaveHistoryResponse struct {
	Inserted bool `json:"inserted"`
}
