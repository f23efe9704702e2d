package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/partsflow/spareparts_backend/models"
	"github.com/partsflow/spareparts_backend/utils"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token    string `json:"token"`
	UserId   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, []string{"username and password are required"})
		return
	}

	user, err := models.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "invalid credentials"})
		return
	}
	if err := utils.ComparePassword(user.Password, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "invalid credentials"})
		return
	}

	token, err := utils.JwtGenerate(user.ID, string(user.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, loginResponse{
		Token:    token,
		UserId:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	})
}
