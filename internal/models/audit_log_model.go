package models

import "time"

type AuditLog struct {
	ID            string    `db:"id" json:"id"`
	AccountPubkey *string   `db:"account_pubkey" json:"account_pubkey,omitempty"`
	UserPubkey    *string   `db:"user_pubkey" json:"user_pubkey,omitempty"`
	Action        string    `db:"action" json:"action"`
	Context       *string   `db:"context" json:"context,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

const (
	AuditUserLogin           = "user.login"
	AuditAccountCreated      = "account.created"
	AuditSettingsUpdated     = "settings.updated"
	AuditCollaboratorInvited = "collaborator.invited"
	AuditInvitationAccepted  = "invitation.accepted"
	AuditInvitationDeclined  = "invitation.declined"
	AuditPermissionsUpdated  = "collaborator.permissions_updated"
	AuditCollaboratorRemoved = "collaborator.removed"
	AuditPostCreated         = "post.created"
	AuditPostDeleted         = "post.deleted"
	AuditQueueCreated        = "queue.created"
	AuditQueueUpdated        = "queue.updated"
	AuditQueueDeleted        = "queue.deleted"
	AuditScheduleCreated     = "schedule.created"
	AuditScheduleCancelled   = "schedule.cancelled"
	AuditSchedulePublished   = "schedule.published"
	AuditScheduleFailed      = "schedule.failed"
	AuditSubscriptionUpdated = "subscription.updated"
	AuditPaymentRecorded     = "payment.recorded"
	AuditMediaUploaded       = "media.uploaded"
)
