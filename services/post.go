package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/blog/config"
	"github.com/cppla/blog/models"
	"github.com/cppla/blog/utils"
)

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title    string
	Subtitle string
	Body     string
	ImgURL   string
}

// PostService manages blog posts.
type PostService struct {
	db *gorm.DB
	// Now is the clock used to stamp new posts.
	Now func() time.Time
}

// NewPostService creates a PostService.
func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db, Now: time.Now}
}

// List returns every post with its author, in storage order.
func (s *PostService) List() ([]models.BlogPost, error) {
	var posts []models.BlogPost
	if err := s.db.Preload("Author").Order("id").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// Get returns a post with its author, or ErrNotFound.
func (s *PostService) Get(id uint) (*models.BlogPost, error) {
	return s.get(s.db.Preload("Author"), id)
}

// GetWithComments returns a post with its author and its comments' authors.
func (s *PostService) GetWithComments(id uint) (*models.BlogPost, error) {
	q := s.db.Preload("Author").Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Preload("Comments.Author")
	return s.get(q, id)
}

func (s *PostService) get(q *gorm.DB, id uint) (*models.BlogPost, error) {
	var post models.BlogPost
	err := q.First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load post %d: %w", id, err)
	}
	return &post, nil
}

// Create stores a new post by author, stamped with today's date.
func (s *PostService) Create(author *models.User, in PostInput) (*models.BlogPost, error) {
	body, err := sanitizeBody(in.Body)
	if err != nil {
		return nil, err
	}
	if err := s.checkTitle(in.Title, 0); err != nil {
		return nil, err
	}
	post := models.BlogPost{
		AuthorID: author.ID,
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Body:     body,
		ImgURL:   in.ImgURL,
		Date:     s.Now().Format(models.DateLayout),
	}
	if err := s.db.Create(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrTitleTaken
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	post.Author = *author
	return &post, nil
}

// Update overwrites the editable fields of post id in place. Author and date are kept.
func (s *PostService) Update(id uint, in PostInput) (*models.BlogPost, error) {
	post, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	body, err := sanitizeBody(in.Body)
	if err != nil {
		return nil, err
	}
	if err := s.checkTitle(in.Title, id); err != nil {
		return nil, err
	}
	post.Title = in.Title
	post.Subtitle = in.Subtitle
	post.Body = body
	post.ImgURL = in.ImgURL

	err = s.db.Model(&models.BlogPost{ID: post.ID}).
		Select("title", "subtitle", "body", "img_url").
		Updates(map[string]interface{}{
			"title":    post.Title,
			"subtitle": post.Subtitle,
			"body":     post.Body,
			"img_url":  post.ImgURL,
		}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrTitleTaken
	}
	if err != nil {
		return nil, fmt.Errorf("update post %d: %w", id, err)
	}
	return post, nil
}

// Delete removes post id and reports how many of its comments went with it.
// What happens to the comments depends on policy: cascade deletes them in the
// same transaction, restrict refuses with ErrPostHasComments, keep leaves them
// pointing at the removed post.
func (s *PostService) Delete(id uint, policy string) (int64, error) {
	var removed int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var post models.BlogPost
		err := tx.First(&post, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load post %d: %w", id, err)
		}

		switch policy {
		case config.CommentPolicyCascade:
			res := tx.Where("post_id = ?", id).Delete(&models.Comment{})
			if res.Error != nil {
				return fmt.Errorf("delete comments of post %d: %w", id, res.Error)
			}
			removed = res.RowsAffected
		case config.CommentPolicyRestrict:
			var count int64
			if err := tx.Model(&models.Comment{}).Where("post_id = ?", id).Count(&count).Error; err != nil {
				return fmt.Errorf("count comments of post %d: %w", id, err)
			}
			if count > 0 {
				return ErrPostHasComments
			}
		case config.CommentPolicyKeep:
		default:
			return fmt.Errorf("unknown comment delete policy %q", policy)
		}

		if err := tx.Delete(&post).Error; err != nil {
			return fmt.Errorf("delete post %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *PostService) checkTitle(title string, exceptID uint) error {
	var count int64
	q := s.db.Model(&models.BlogPost{}).Where("title = ?", title)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check post title: %w", err)
	}
	if count > 0 {
		return ErrTitleTaken
	}
	return nil
}

// sanitizeBody cleans a post body and rejects one that sanitizing emptied.
func sanitizeBody(raw string) (string, error) {
	body := utils.SanitizePost(raw)
	if strings.TrimSpace(body) == "" {
		return "", ErrEmptyContent
	}
	return body, nil
}
