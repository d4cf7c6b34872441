package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blog/models"
	"github.com/cppla/blog/services"
	"github.com/cppla/blog/session"
	"github.com/cppla/blog/utils"
)

// PostController serves the post feed, single posts with comments, and the
// administrator's create/edit/delete pages.
type PostController struct {
	posts         *services.PostService
	comments      *services.CommentService
	commentPolicy string
}

// NewPostController creates a PostController. commentPolicy decides what
// happens to a post's comments when the post is deleted.
func NewPostController(posts *services.PostService, comments *services.CommentService, commentPolicy string) *PostController {
	return &PostController{posts: posts, comments: comments, commentPolicy: commentPolicy}
}

// ListPosts renders every post.
func (p *PostController) ListPosts(ctx *gin.Context) {
	posts, err := p.posts.List()
	if err != nil {
		utils.Sugar.Errorf("list posts: %v", err)
		utils.ErrorPage(ctx, http.StatusInternalServerError)
		return
	}
	utils.HTML(ctx, http.StatusOK, "index.html", "Blog", gin.H{"all_posts": posts})
}

// ShowPost renders a post with its comments and the comment form.
func (p *PostController) ShowPost(ctx *gin.Context) {
	post, ok := p.loadPost(ctx, true)
	if !ok {
		return
	}
	p.renderPost(ctx, http.StatusOK, post, CommentForm{}, nil)
}

// CreateComment stores a comment from the logged-in user under the post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	post, ok := p.loadPost(ctx, true)
	if !ok {
		return
	}

	user := session.Principal(ctx)
	if user == nil {
		utils.Redirect(ctx, "/login", flashLoginRequired)
		return
	}

	var form CommentForm
	if err := ctx.ShouldBind(&form); err != nil {
		p.renderPost(ctx, http.StatusBadRequest, post, form, formErrors(err))
		return
	}

	_, err := p.comments.Create(user, post, form.Comment)
	if errors.Is(err, services.ErrEmptyContent) {
		p.renderPost(ctx, http.StatusBadRequest, post, form, FieldErrors{"Comment": requiredMessage})
		return
	}
	if err != nil {
		utils.Sugar.Errorf("comment on post %d: %v", post.ID, err)
		utils.ErrorPage(ctx, http.StatusInternalServerError)
		return
	}
	utils.Redirect(ctx, postURL(post.ID), "")
}

// NewPostPage shows the empty post form.
func (p *PostController) NewPostPage(ctx *gin.Context) {
	utils.HTML(ctx, http.StatusOK, "make-post.html", "New Post", gin.H{"form": PostForm{}, "action": "/new-post"})
}

// CreatePost stores a post authored by the administrator.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var form PostForm
	render := func(errs FieldErrors) {
		utils.HTML(ctx, http.StatusBadRequest, "make-post.html", "New Post", gin.H{"form": form, "action": "/new-post", "errors": errs})
	}
	if err := ctx.ShouldBind(&form); err != nil {
		render(formErrors(err))
		return
	}

	post, err := p.posts.Create(session.Principal(ctx), postInput(form))
	switch {
	case errors.Is(err, services.ErrTitleTaken):
		render(FieldErrors{"Title": err.Error()})
		return
	case errors.Is(err, services.ErrEmptyContent):
		render(FieldErrors{"Body": requiredMessage})
		return
	case err != nil:
		utils.Sugar.Errorf("create post: %v", err)
		utils.ErrorPage(ctx, http.StatusInternalServerError)
		return
	}
	utils.Sugar.Infow("post created", "post_id", post.ID)
	utils.Redirect(ctx, "/", "")
}

// EditPostPage shows the post form pre-populated with the stored fields.
func (p *PostController) EditPostPage(ctx *gin.Context) {
	post, ok := p.loadPost(ctx, false)
	if !ok {
		return
	}
	form := PostForm{Title: post.Title, Subtitle: post.Subtitle, ImgURL: post.ImgURL, Body: post.Body}
	utils.HTML(ctx, http.StatusOK, "make-post.html", "Edit Post", gin.H{"form": form, "action": editURL(post.ID), "editing": true})
}

// UpdatePost overwrites the post's fields in place.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	post, ok := p.loadPost(ctx, false)
	if !ok {
		return
	}

	var form PostForm
	render := func(errs FieldErrors) {
		utils.HTML(ctx, http.StatusBadRequest, "make-post.html", "Edit Post", gin.H{"form": form, "action": editURL(post.ID), "editing": true, "errors": errs})
	}
	if err := ctx.ShouldBind(&form); err != nil {
		render(formErrors(err))
		return
	}

	_, err := p.posts.Update(post.ID, postInput(form))
	switch {
	case errors.Is(err, services.ErrTitleTaken):
		render(FieldErrors{"Title": err.Error()})
		return
	case errors.Is(err, services.ErrEmptyContent):
		render(FieldErrors{"Body": requiredMessage})
		return
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorPage(ctx, http.StatusNotFound)
		return
	case err != nil:
		utils.Sugar.Errorf("update post %d: %v", post.ID, err)
		utils.ErrorPage(ctx, http.StatusInternalServerError)
		return
	}
	utils.Sugar.Infow("post updated", "post_id", post.ID)
	utils.Redirect(ctx, postURL(post.ID), "")
}

// DeletePost removes the post, handling its comments per the configured policy.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := postIDParam(ctx)
	if !ok {
		utils.ErrorPage(ctx, http.StatusNotFound)
		return
	}

	removed, err := p.posts.Delete(id, p.commentPolicy)
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorPage(ctx, http.StatusNotFound)
		return
	case errors.Is(err, services.ErrPostHasComments):
		utils.Redirect(ctx, postURL(id), flashPostHasReplies)
		return
	case err != nil:
		utils.Sugar.Errorf("delete post %d: %v", id, err)
		utils.ErrorPage(ctx, http.StatusInternalServerError)
		return
	}
	utils.Sugar.Infow("post deleted", "post_id", id, "comments_removed", removed, "comment_policy", p.commentPolicy)
	utils.Redirect(ctx, "/", "")
}

// loadPost resolves :post_id, rendering 404 or 500 itself when it cannot.
func (p *PostController) loadPost(ctx *gin.Context, withComments bool) (*models.BlogPost, bool) {
	id, ok := postIDParam(ctx)
	if !ok {
		utils.ErrorPage(ctx, http.StatusNotFound)
		return nil, false
	}

	var (
		post *models.BlogPost
		err  error
	)
	if withComments {
		post, err = p.posts.GetWithComments(id)
	} else {
		post, err = p.posts.Get(id)
	}
	if errors.Is(err, services.ErrNotFound) {
		utils.ErrorPage(ctx, http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		utils.Sugar.Errorf("load post %d: %v", id, err)
		utils.ErrorPage(ctx, http.StatusInternalServerError)
		return nil, false
	}
	return post, true
}

func (p *PostController) renderPost(ctx *gin.Context, status int, post *models.BlogPost, form CommentForm, errs FieldErrors) {
	utils.HTML(ctx, status, "post.html", post.Title, gin.H{"post": post, "comment": form, "errors": errs})
}

func postInput(form PostForm) services.PostInput {
	return services.PostInput{Title: form.Title, Subtitle: form.Subtitle, Body: form.Body, ImgURL: form.ImgURL}
}

func postURL(id uint) string {
	return fmt.Sprintf("/post/%d", id)
}

func editURL(id uint) string {
	return fmt.Sprintf("/edit-post/%d", id)
}
