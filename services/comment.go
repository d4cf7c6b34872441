package services

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/blog/models"
	"github.com/cppla/blog/utils"
)

// CommentService stores comments under posts.
type CommentService struct {
	db *gorm.DB
}

// NewCommentService creates a CommentService.
func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// Create stores a comment by author under post.
func (s *CommentService) Create(author *models.User, post *models.BlogPost, text string) (*models.Comment, error) {
	clean := utils.SanitizeComment(text)
	if strings.TrimSpace(clean) == "" {
		return nil, ErrEmptyContent
	}
	comment := models.Comment{
		AuthorID: author.ID,
		PostID:   post.ID,
		Text:     clean,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment.Author = *author
	return &comment, nil
}
