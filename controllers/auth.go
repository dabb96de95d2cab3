package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/apotek_backend/models"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

func LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}

		payload, err := models.Login(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "login successful", payload)
	}
}

func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := utils.GetUserIdFromContext(c.Request.Context())
		if !ok {
			respondError(c, utils.NewValidationError("no authenticated user"))
			return
		}
		user, err := utils.FetchModel[models.User](c.Request.Context(), userId)
		if err != nil {
			respondError(c, err)
			return
		}
		// Same shape as the login response so clients can refresh their
		// cached session from either endpoint.
		token, _ := utils.GetTokenFromContext(c.Request.Context())
		respondSuccess(c, http.StatusOK, "current user", models.AuthPayload{Token: token, User: user})
	}
}

type changePasswordInput struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func ChangePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input changePasswordInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}

		userId, ok := utils.GetUserIdFromContext(c.Request.Context())
		if !ok {
			respondError(c, utils.NewValidationError("no authenticated user"))
			return
		}
		if err := models.ChangePassword(c.Request.Context(), userId, input.OldPassword, input.NewPassword); err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "password changed", nil)
	}
}
