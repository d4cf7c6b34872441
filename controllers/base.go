package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Flash notices shown to users.
const (
	flashEmailTaken     = "An account with this email already exists, log in instead."
	flashNoSuchAccount  = "An account with this email does not exist."
	flashWrongPassword  = "Password incorrect, please try again."
	flashLoggedIn       = "You have logged in."
	flashLoggedOut      = "You have been logged out."
	flashLoginRequired  = "You need to login or register to comment."
	flashPostHasReplies = "This post has comments and cannot be deleted."
)

// postIDParam parses the :post_id path segment.
func postIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("post_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
