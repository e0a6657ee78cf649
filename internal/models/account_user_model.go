package models

import "time"

type AccountUser struct {
	ID                     string    `db:"id" json:"id"`
	AccountPubkey          string    `db:"account_pubkey" json:"account_pubkey"`
	UserPubkey             string    `db:"user_pubkey" json:"user_pubkey"`
	Role                   string    `db:"role" json:"role"`
	CanCreateDrafts        bool      `db:"can_create_drafts" json:"can_create_drafts"`
	CanSchedule            bool      `db:"can_schedule" json:"can_schedule"`
	CanPublish             bool      `db:"can_publish" json:"can_publish"`
	CanManageQueues        bool      `db:"can_manage_queues" json:"can_manage_queues"`
	CanManageCollaborators bool      `db:"can_manage_collaborators" json:"can_manage_collaborators"`
	CanViewMetrics         bool      `db:"can_view_metrics" json:"can_view_metrics"`
	InvitationStatus       string    `db:"invitation_status" json:"invitation_status"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

type Permission string

const (
	PermCreateDrafts        Permission = "create_drafts"
	PermSchedule            Permission = "schedule"
	PermPublish             Permission = "publish"
	PermManageQueues        Permission = "manage_queues"
	PermManageCollaborators Permission = "manage_collaborators"
	PermViewMetrics         Permission = "view_metrics"
)

func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Can reports whether the membership grants p. Memberships that are not accepted grant nothing.
func (au *AccountUser) Can(p Permission) bool {
	if au == nil || au.InvitationStatus != InvitationAccepted {
		return false
	}
	if au.Role == RoleOwner {
		return true
	}
	switch p {
	case PermCreateDrafts:
		return au.CanCreateDrafts
	case PermSchedule:
		return au.CanSchedule
	case PermPublish:
		return au.CanPublish
	case PermManageQueues:
		return au.CanManageQueues
	case PermManageCollaborators:
		return au.CanManageCollaborators
	case PermViewMetrics:
		return au.CanViewMetrics
	}
	return false
}

// GrantAll sets every capability flag.
func (au *AccountUser) GrantAll() {
	au.CanCreateDrafts = true
	au.CanSchedule = true
	au.CanPublish = true
	au.CanManageQueues = true
	au.CanManageCollaborators = true
	au.CanViewMetrics = true
}
