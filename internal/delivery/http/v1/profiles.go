package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlerImpl) HandleGetMe(c *gin.Context) {
	profile, ok := h.mustGetProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, profile)
}
