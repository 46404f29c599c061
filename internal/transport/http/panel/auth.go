package panelhttp

import (
	"net/http"

	"clocktower/internal/logger"
	"clocktower/internal/store/helix"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

// requireBroadcaster rejects writes that do not carry a broadcaster extension
// token. Without a verifier every request passes.
func (r *Router) requireBroadcaster() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.cfg.Verifier == nil {
			c.Next()
			return
		}
		claims, err := r.cfg.Verifier.Verify(c.GetHeader("Authorization"))
		if err != nil {
			logger.Debugf("panel: rejected token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "message": "unauthorized"})
			return
		}
		if claims.Role != helix.RoleBroadcaster && claims.Role != helix.RoleExternal {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "message": "only the broadcaster can change the configuration"})
			return
		}
		c.Next()
	}
}

// scriptField pulls "script" out of a JSON envelope.
func scriptField(raw []byte) (string, bool) {
	if !gjson.ValidBytes(raw) {
		return "", false
	}
	v := gjson.GetBytes(raw, "script")
	if v.Type != gjson.String {
		return "", false
	}
	return v.Str, true
}
