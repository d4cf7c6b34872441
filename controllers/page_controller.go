package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blog/utils"
)

// About renders the static about page.
func About(ctx *gin.Context) {
	utils.HTML(ctx, http.StatusOK, "about.html", "About", nil)
}

// Contact renders the static contact page.
func Contact(ctx *gin.Context) {
	utils.HTML(ctx, http.StatusOK, "contact.html", "Contact", nil)
}

// Health reports liveness for load balancers, including database reachability.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx.Request.Context())
		}
		if err != nil {
			utils.Sugar.Errorf("health check: %v", err)
			utils.Error(ctx, http.StatusServiceUnavailable, 1, "database unavailable")
			return
		}
		utils.Success(ctx, gin.H{"status": "ok"})
	}
}
