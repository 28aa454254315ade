// Package audit describes the admin-visible trail of changes to leads, recipes,
// invitations and accounts.
package audit

import (
	"errors"
	"strings"
	"time"
)

type Category string

const (
	CategoryLead       Category = "lead"
	CategoryRecipe     Category = "recipe"
	CategoryInvitation Category = "invitation"
	CategoryAccount    Category = "account"
	CategorySecurity   Category = "security"
)

// Categories lists every category in the order the audit filter shows them.
var Categories = []Category{CategoryLead, CategoryRecipe, CategoryInvitation, CategoryAccount, CategorySecurity}

var categoryLabels = map[Category]string{
	CategoryLead:       "Pioniere",
	CategoryRecipe:     "Rezepte",
	CategoryInvitation: "Einladungen",
	CategoryAccount:    "Konten",
	CategorySecurity:   "Sicherheit",
}

// Label is the German name shown in the audit trail.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
	ActionInvite Action = "invite"
	ActionRedeem Action = "redeem"
	ActionLogin  Action = "login"
	ActionLogout Action = "logout"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Severities lists the levels from least to most severe.
var Severities = []Severity{SeverityInfo, SeverityWarning, SeverityCritical}

var (
	ErrEmptyID       = errors.New("audit: event id is required")
	ErrEmptyCategory = errors.New("audit: category is required")
	ErrEmptyAction   = errors.New("audit: action is required")
	ErrNoTimestamp   = errors.New("audit: timestamp is required")
)

// Actor is whoever caused an event. Failed logins carry only the attempted email.
type Actor struct {
	ID        string
	Email     string
	Role      string
	IPAddress string
	UserAgent string
}

// Event is one audit trail row.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Action       Action    `json:"action"`
	Severity     Severity  `json:"severity"`
	ActorID      string    `json:"actor_id"`
	ActorEmail   string    `json:"actor_email"`
	ActorRole    string    `json:"actor_role"`
	ResourceID   string    `json:"resource_id"`
	ResourceType string    `json:"resource_type"`
	Description  string    `json:"description"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	Metadata     string    `json:"metadata"`
}

// New stamps an info-level event for actor at the given time.
func New(id string, at time.Time, actor Actor, category Category, action Action) Event {
	return Event{
		ID:         id,
		Timestamp:  at.UTC(),
		Category:   category,
		Action:     action,
		Severity:   SeverityInfo,
		ActorID:    actor.ID,
		ActorEmail: strings.ToLower(strings.TrimSpace(actor.Email)),
		ActorRole:  actor.Role,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
	}
}

// About names the resource an event concerns.
func (e Event) About(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

func (e Event) Validate() error {
	switch {
	case e.ID == "":
		return ErrEmptyID
	case e.Category == "":
		return ErrEmptyCategory
	case e.Action == "":
		return ErrEmptyAction
	case e.Timestamp.IsZero():
		return ErrNoTimestamp
	}
	return nil
}

// Resource renders the resource reference for display, e.g. "lead lead-1".
func (e Event) Resource() string {
	return strings.TrimSpace(e.ResourceType + " " + e.ResourceID)
}
