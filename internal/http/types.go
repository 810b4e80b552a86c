package http

import (
	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
	"github.com/fyrsmithlabs/learnhooks/internal/progress"
)

// HookRequest is the request body for POST /api/v1/hooks/:hook.
type HookRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
	SkillID  string `json:"skillId,omitempty"`
}

// HookResponse is the response body for POST /api/v1/hooks/:hook.
// Notices are the messages the hook asked the host to show.
type HookResponse struct {
	Hook    hooks.HookType    `json:"hook"`
	Result  hooks.Result      `json:"result"`
	Notices []progress.Notice `json:"notices"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Skills int    `json:"skills"`
}

// HooksResponse is the response body for GET /api/v1/hooks.
type HooksResponse struct {
	Hooks []hooks.HookType `json:"hooks"`
}
