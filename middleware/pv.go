package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blog/models"
	"github.com/cppla/blog/utils"
)

// PageViewRecorder counts rendered pages per local day and request path, so
// every post gets its own counter.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if !countable(c) {
			return
		}
		if err := recordView(db, c.Request.URL.Path, time.Now()); err != nil {
			utils.Sugar.Warnf("record page view %s: %v", c.Request.URL.Path, err)
		}
	}
}

// countable keeps GET requests that rendered a page; redirects, errors and assets are skipped.
func countable(c *gin.Context) bool {
	if c.Request.Method != http.MethodGet {
		return false
	}
	if status := c.Writer.Status(); status < 200 || status >= 300 {
		return false
	}
	return !strings.HasPrefix(c.Request.URL.Path, "/static/")
}

func recordView(db *gorm.DB, path string, now time.Time) error {
	view := models.PageView{Day: now.Format(models.PageViewDayLayout), Path: path, Views: 1, UpdatedAt: now}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}, {Name: "path"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"views":      gorm.Expr("page_views.views + 1"),
			"updated_at": now,
		}),
	}).Create(&view).Error
}
