package dto

import "time"

type PingRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
}

type TaskAcceptedResponse struct {
	TaskID string `json:"task_id"`
}

type TaskStatusResponse struct {
	TaskID    string     `json:"task_id"`
	Name      string     `json:"name,omitempty"`
	State     string     `json:"state"`
	Result    string     `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
