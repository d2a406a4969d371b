package session

import (
	"ashley/authority"
	"context"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
)

type Session struct {
	Token          string                   `json:"token"`
	Identity       Identity                 `json:"identity"`
	Perms          authority.Permissions    `json:"perms"`
	WorkspaceRoles authority.WorkspaceRoles `json:"workspaceRoles"`

	SigningTime time.Time `json:"-"`

	Context context.Context `json:"-"`
}

type Identity struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

func (s Session) Clone() Session {
	c := s
	c.Perms = append(authority.Permissions{}, s.Perms...)
	c.WorkspaceRoles = append(authority.WorkspaceRoles{}, s.WorkspaceRoles...)
	return c
}

func (s *Session) HasRole(role string) bool {
	return s.Perms.HasRole(role)
}

func (s *Session) HasRoleSuffix(suffix string) bool {
	return s.Perms.HasRoleSuffix(suffix)
}

func (s *Session) HasWorkspaceViewPerm(workspaceId types.ID) bool {
	return s.Perms.HasWorkspaceViewPerm(workspaceId)
}

// VisibleWorkspaces parses visible workspace ids from Session.Perms
func (s *Session) VisibleWorkspaces() []types.ID {
	var workspaceIds []types.ID
	for _, v := range s.Perms {
		pairs := strings.Split(v, "_")
		if len(pairs) == 2 {
			id, err := types.ParseID(pairs[1])
			if err != nil {
				continue
			}
			workspaceIds = append(workspaceIds, id)
		}
	}
	if workspaceIds == nil {
		return []types.ID{}
	}
	return workspaceIds
}
