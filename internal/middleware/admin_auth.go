package middleware

import (
	"crypto/subtle"

	"github.com/kataras/iris/v12"
)

// ValidAdminToken 常数时间比较后台令牌，空令牌一律拒绝
func ValidAdminToken(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// AdminAuth 后台接口共享令牌鉴权，校验 X-Admin-Token 请求头
func AdminAuth(token string) iris.Handler {
	return func(ctx iris.Context) {
		if !ValidAdminToken(ctx.GetHeader("X-Admin-Token"), token) {
			ctx.StopWithJSON(401, iris.Map{
				"code": 401,
				"msg":  "invalid admin token",
			})
			return
		}
		ctx.Next()
	}
}
