package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/models"
)

func actorFromContext(c *gin.Context) (models.Actor, bool) {
	return middleware.ActorFromContext(c)
}
