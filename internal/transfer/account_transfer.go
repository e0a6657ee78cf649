package transfer

import "encoding/json"

// AccountCreation carries, in Proof, a kind 27235 event signed by the account key that
// names the requesting user in a p tag.
type AccountCreation struct {
	Pubkey string          `json:"pubkey"`
	Name   *string         `json:"name"`
	Relays string          `json:"relays"`
	Proof  json.RawMessage `json:"proof"`
}

type SettingsUpdate struct {
	Relays string `json:"relays"`
}

type Permissions struct {
	CanCreateDrafts        bool `json:"can_create_drafts"`
	CanSchedule            bool `json:"can_schedule"`
	CanPublish             bool `json:"can_publish"`
	CanManageQueues        bool `json:"can_manage_queues"`
	CanManageCollaborators bool `json:"can_manage_collaborators"`
	CanViewMetrics         bool `json:"can_view_metrics"`
}

type Invitation struct {
	UserPubkey string `json:"user_pubkey"`
	Role       string `json:"role"`
	Permissions
}

type InvitationResponse struct {
	Accept bool `json:"accept"`
}

type PermissionsUpdate struct {
	Role string `json:"role"`
	Permissions
}
