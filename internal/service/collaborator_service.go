package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
	"github.com/maheshrc27/postr/internal/repository"
	"github.com/maheshrc27/postr/internal/transfer"
	"github.com/nbd-wtf/go-nostr"
)

type CollaboratorService interface {
	Invite(ctx context.Context, account, user string, in transfer.Invitation) (*models.AccountUser, error)
	Respond(ctx context.Context, account, user string, accept bool) (*models.AccountUser, error)
	UpdatePermissions(ctx context.Context, account, user, target string, in transfer.PermissionsUpdate) (*models.AccountUser, error)
	Remove(ctx context.Context, account, user, target string) error
	List(ctx context.Context, account, user string) ([]*models.AccountUser, error)
}

type collaboratorService struct {
	c *repository.Client
}

func NewCollaboratorService(c *repository.Client) CollaboratorService {
	return &collaboratorService{c: c}
}

func permissionSet(p transfer.Permissions) query.Set {
	return query.Set{
		"can_create_drafts":        p.CanCreateDrafts,
		"can_schedule":             p.CanSchedule,
		"can_publish":              p.CanPublish,
		"can_manage_queues":        p.CanManageQueues,
		"can_manage_collaborators": p.CanManageCollaborators,
		"can_view_metrics":         p.CanViewMetrics,
	}
}

func collaboratorRole(role string) (string, error) {
	if role == "" {
		return models.RoleEditor, nil
	}
	if !models.ValidRole(role) || role == models.RoleOwner {
		return "", invalid("role %q cannot be granted", role)
	}
	return role, nil
}

func (s *collaboratorService) Invite(ctx context.Context, account, user string, in transfer.Invitation) (*models.AccountUser, error) {
	if _, err := authorize(ctx, s.c, account, user, models.PermManageCollaborators); err != nil {
		return nil, err
	}
	target := strings.ToLower(strings.TrimSpace(in.UserPubkey))
	if !nostr.IsValidPublicKey(target) {
		return nil, invalid("user pubkey must be a 64 character hex key")
	}
	role, err := collaboratorRole(in.Role)
	if err != nil {
		return nil, err
	}

	var invited *models.AccountUser
	err = s.c.Transaction(ctx, func(tx *repository.Client) error {
		existing, found, err := tx.AccountUser.FindMembership(ctx, account, target)
		if err != nil {
			return err
		}
		if found && existing.Role == models.RoleOwner {
			return invalid("the owner cannot be re-invited")
		}
		if _, err := tx.User.Ensure(ctx, target); err != nil {
			return err
		}

		au := &models.AccountUser{
			AccountPubkey:          account,
			UserPubkey:             target,
			Role:                   role,
			CanCreateDrafts:        in.CanCreateDrafts,
			CanSchedule:            in.CanSchedule,
			CanPublish:             in.CanPublish,
			CanManageQueues:        in.CanManageQueues,
			CanManageCollaborators: in.CanManageCollaborators,
			CanViewMetrics:         in.CanViewMetrics,
			InvitationStatus:       models.InvitationPending,
		}
		update := permissionSet(in.Permissions)
		update["role"] = role
		update["invitation_status"] = models.InvitationPending
		invited, err = tx.AccountUser.UpsertMembership(ctx, au, update)
		if err != nil {
			return err
		}
		return audit(ctx, tx, models.AuditCollaboratorInvited, account, user, map[string]any{"user": target, "role": role})
	})
	if err != nil {
		return nil, err
	}
	return invited, nil
}

func (s *collaboratorService) Respond(ctx context.Context, account, user string, accept bool) (*models.AccountUser, error) {
	au, found, err := s.c.AccountUser.FindMembership(ctx, account, user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: no invitation to %s", ErrNotFound, account)
	}
	if au.InvitationStatus != models.InvitationPending {
		return nil, invalid("invitation is already %s", au.InvitationStatus)
	}

	status, action := models.InvitationDeclined, models.AuditInvitationDeclined
	if accept {
		status, action = models.InvitationAccepted, models.AuditInvitationAccepted
	}

	var updated *models.AccountUser
	err = s.c.Transaction(ctx, func(tx *repository.Client) error {
		updated, err = tx.AccountUser.Update(ctx, au.ID, query.Set{"invitation_status": status})
		if err != nil {
			return err
		}
		return audit(ctx, tx, action, account, user, nil)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// target returns the membership of target in account, refusing the owner.
func (s *collaboratorService) target(ctx context.Context, account, target string) (*models.AccountUser, error) {
	au, found, err := s.c.AccountUser.FindMembership(ctx, account, target)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s is not a collaborator", ErrNotFound, target)
	}
	if au.Role == models.RoleOwner {
		return nil, fmt.Errorf("%w: the owner cannot be changed or removed", ErrForbidden)
	}
	return au, nil
}

func (s *collaboratorService) UpdatePermissions(ctx context.Context, account, user, target string, in transfer.PermissionsUpdate) (*models.AccountUser, error) {
	if _, err := authorize(ctx, s.c, account, user, models.PermManageCollaborators); err != nil {
		return nil, err
	}
	au, err := s.target(ctx, account, target)
	if err != nil {
		return nil, err
	}
	set := permissionSet(in.Permissions)
	if in.Role != "" {
		role, err := collaboratorRole(in.Role)
		if err != nil {
			return nil, err
		}
		set["role"] = role
	}

	var updated *models.AccountUser
	err = s.c.Transaction(ctx, func(tx *repository.Client) error {
		updated, err = tx.AccountUser.Update(ctx, au.ID, set)
		if err != nil {
			return err
		}
		return audit(ctx, tx, models.AuditPermissionsUpdated, account, user, map[string]any{"user": target})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *collaboratorService) Remove(ctx context.Context, account, user, target string) error {
	if _, err := authorize(ctx, s.c, account, user, models.PermManageCollaborators); err != nil {
		return err
	}
	au, err := s.target(ctx, account, target)
	if err != nil {
		return err
	}
	return s.c.Transaction(ctx, func(tx *repository.Client) error {
		if _, err := tx.AccountUser.Delete(ctx, au.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: %s is not a collaborator", ErrNotFound, target)
			}
			return err
		}
		return audit(ctx, tx, models.AuditCollaboratorRemoved, account, user, map[string]any{"user": target})
	})
}

func (s *collaboratorService) List(ctx context.Context, account, user string) ([]*models.AccountUser, error) {
	if _, err := member(ctx, s.c, account, user); err != nil {
		return nil, err
	}
	return s.c.AccountUser.ListByAccount(ctx, account)
}
