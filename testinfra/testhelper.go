package testinfra

import (
	"ashley/authority"
	"ashley/domain"
	"ashley/session"
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// BuildSecCtx builds a session the way the auth filter would have.
func BuildSecCtx(uid types.ID, perms ...string) *session.Session {
	workspaceRoles := authority.WorkspaceRoles{}
	for _, perm := range perms {
		idx := strings.Index(perm, "_")
		if idx > 0 {
			role := perm[0:idx]
			workspaceId, err := types.ParseID(perm[idx+1:])
			if err != nil {
				continue
			}
			workspaceRoles = append(workspaceRoles, domain.WorkspaceRole{WorkspaceID: workspaceId, Role: role})
		}
	}

	return &session.Session{
		Token:          "test-token-" + uid.String(),
		Identity:       session.Identity{ID: uid, Name: "user-" + uid.String()},
		Perms:          perms,
		WorkspaceRoles: workspaceRoles,
		Context:        context.Background(),
	}
}

func ExecuteRequest(req *http.Request, router *gin.Engine) (int, string) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	body, _ := ioutil.ReadAll(w.Result().Body)
	return w.Result().StatusCode, string(body)
}
