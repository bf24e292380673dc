package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/samasyax/samasyax/internal/middleware"
	"github.com/samasyax/samasyax/internal/policy"
	"github.com/samasyax/samasyax/internal/types"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, fmt.Errorf("user not authenticated")
	}

	authenticatedUser, ok := user.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, fmt.Errorf("invalid user type in context")
	}

	return authenticatedUser, nil
}

// GetActor adapts the authenticated identity into the shape the policy
// package evaluates against.
func GetActor(ctx *gin.Context) (policy.Actor, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return policy.Actor{}, err
	}

	return policy.Actor{ID: user.ID, Role: user.Role}, nil
}
