package models

import "time"

// PageViewDayLayout formats the day a page view is counted under.
const PageViewDayLayout = "2006-01-02"

// PageView counts the successful page renders of one path on one local day.
type PageView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Day       string    `gorm:"size:10;not null;uniqueIndex:idx_page_views_day_path" json:"day"`
	Path      string    `gorm:"size:255;not null;uniqueIndex:idx_page_views_day_path" json:"path"`
	Views     int64     `gorm:"not null;default:0" json:"views"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All lists every model the schema migration creates.
func All() []interface{} {
	return []interface{}{&User{}, &BlogPost{}, &Comment{}, &PageView{}}
}
