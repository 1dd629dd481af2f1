package dto

type RegisterResponse struct {
	Token      string `json:"token"`
	Controller any    `json:"controller"`
}

type ControllerResponse struct {
	Controller any `json:"controller"`
	Version    any `json:"version"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}
