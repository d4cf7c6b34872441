package models

import "time"

// DateLayout is how a post's creation day is stamped, e.g. "March 07, 2024".
const DateLayout = "January 02, 2006"

// BlogPost is an article written by the administrator.
type BlogPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Title     string    `gorm:"size:250;not null;uniqueIndex" json:"title"`
	Subtitle  string    `gorm:"size:250;not null" json:"subtitle"`
	Date      string    `gorm:"size:250;not null" json:"date"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	ImgURL    string    `gorm:"column:img_url;size:250;not null" json:"img_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	Comments  []Comment `gorm:"foreignKey:PostID" json:"comments"`
}

// TableName keeps the table name used by the existing schema.
func (BlogPost) TableName() string {
	return "blog_posts"
}
