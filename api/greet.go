package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bitmark-inc/vaccination-api/utils"
)

func (s *Server) greet(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": utils.Localize(utils.WelcomeMessage, c.GetHeader("Accept-Language")),
	})
}
