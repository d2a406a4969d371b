package authority

import (
	"ashley/domain"
	"strings"

	"github.com/fundwit/go-commons/types"
)

type Permissions []string

func (c Permissions) HasRole(role string) bool {
	for _, v := range c {
		if strings.EqualFold(v, role) {
			return true
		}
	}
	return false
}

func (c Permissions) HasGlobalViewRole() bool {
	for _, v := range c {
		if strings.HasPrefix(strings.ToLower(v), "system:") {
			return true
		}
	}
	return false
}

func (c Permissions) HasRolePrefix(prefix string) bool {
	for _, v := range c {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func (c Permissions) HasRoleSuffix(suffix string) bool {
	for _, v := range c {
		if strings.HasSuffix(strings.ToLower(v), strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

func (c Permissions) HasWorkspaceViewPerm(workspaceId types.ID) bool {
	return c.HasGlobalViewRole() || c.HasRoleSuffix("_"+workspaceId.String())
}

type WorkspaceRoles []domain.WorkspaceRole

func (c WorkspaceRoles) HasWorkspace(workspaceId types.ID) bool {
	for _, v := range c {
		if v.WorkspaceID == workspaceId {
			return true
		}
	}
	return false
}
