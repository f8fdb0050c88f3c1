package utils

import (
	"strconv"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// UserIDMiddleware ensures the {id} route parameter matches the token owner,
// unless the caller is an admin.
func UserIDMiddleware(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	claims := jwt.Get(ctx).(*AccessToken)

	userID := strconv.FormatUint(uint64(claims.ID), 10)

	if userID != id && claims.Role != "admin" {
		CreateForbidden(ctx)
		return
	}
	ctx.Values().Set("userID", claims.ID)
	ctx.Values().Set("role", claims.Role)
	ctx.Next()
}

// UserIDFromTokenMiddleware extracts the identity from the JWT and stores it
// in the request context. Use this for routes without an {id} parameter.
func UserIDFromTokenMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	ctx.Values().Set("userID", claims.ID)
	ctx.Values().Set("role", claims.Role)
	ctx.Next()
}

// AdminOnlyMiddleware ensures the requester holds the admin role.
func AdminOnlyMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	if claims.Role != "admin" {
		CreateError(iris.StatusForbidden, "Admin access required.", ctx)
		return
	}
	ctx.Values().Set("userID", claims.ID)
	ctx.Values().Set("role", claims.Role)
	ctx.Next()
}

// ContextUserID returns the identity set by the middleware above.
func ContextUserID(ctx iris.Context) (uint, bool) {
	v := ctx.Values().Get("userID")
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// ContextRole returns the role claim, defaulting to "user".
func ContextRole(ctx iris.Context) string {
	if role, ok := ctx.Values().Get("role").(string); ok && role != "" {
		return role
	}
	return "user"
}
