package models

import "time"

// Tenant is an authoring organization. Every survey belongs to one tenant.
type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is an authoring account scoped to a tenant.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	TenantID  string    `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Collaborator grants a user access to a survey with a role (editor|viewer).
type Collaborator struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// AuditEntry records an authoring or destructive action.
type AuditEntry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target"`
	Note   string    `json:"note,omitempty"`
}
