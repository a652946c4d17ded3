package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/autoblog/models"
	"github.com/cppla/autoblog/store"
	"github.com/cppla/autoblog/utils"
)

// PostController manages the caller's own posts.
type PostController struct {
	posts store.PostStore
}

// NewPostController creates a new PostController instance.
func NewPostController(posts store.PostStore) *PostController {
	return &PostController{posts: posts}
}

// CreatePost stores a post owned by the caller, optionally with autoreply settings.
func (p *PostController) CreatePost(ctx *gin.Context) {
	me, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req struct {
		Title          string `json:"title" binding:"required,min=1,max=255"`
		Content        string `json:"content" binding:"required"`
		Autoreply      bool   `json:"autoreply"`
		AutoreplyDelay int    `json:"autoreply_delay" binding:"min=0"`
		AutoreplyMsg   string `json:"autoreply_msg"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 40020, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		badRequest(ctx, 40021, "title cannot be empty")
		return
	}

	post := models.Post{
		OwnerID:        me.ID,
		Title:          title,
		Content:        utils.Sanitize(req.Content),
		Autoreply:      req.Autoreply,
		AutoreplyDelay: req.AutoreplyDelay,
		AutoreplyMsg:   utils.Sanitize(req.AutoreplyMsg),
	}
	if err := p.posts.CreatePost(ctx.Request.Context(), &post); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"post": post})
}

// ListPosts returns the caller's posts, oldest first.
func (p *PostController) ListPosts(ctx *gin.Context) {
	me, ok := currentUser(ctx)
	if !ok {
		return
	}
	page, ok := parsePage(ctx)
	if !ok {
		badRequest(ctx, 40023, "invalid pagination parameters")
		return
	}
	posts, err := p.posts.ListOwnedPosts(ctx.Request.Context(), me.ID, page)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": posts, "pagination": pagination(page)})
}

// GetPost returns one of the caller's posts.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// UpdatePost applies the fields present in the body; an empty body changes nothing.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}

	var patch models.PostPatch
	if err := bindOptionalJSON(ctx, &patch); err != nil {
		badRequest(ctx, 40020, "invalid request payload")
		return
	}
	patch.Title = utils.SanitizePtr(patch.Title)
	if patch.Title != nil && *patch.Title == "" {
		badRequest(ctx, 40021, "title cannot be empty")
		return
	}
	if patch.AutoreplyDelay != nil && *patch.AutoreplyDelay < 0 {
		badRequest(ctx, 40022, "autoreply_delay must not be negative")
		return
	}
	if patch.Content != nil {
		v := utils.Sanitize(*patch.Content)
		patch.Content = &v
	}
	if patch.AutoreplyMsg != nil {
		v := utils.Sanitize(*patch.AutoreplyMsg)
		patch.AutoreplyMsg = &v
	}

	patch.Apply(post)
	if err := p.posts.UpdatePost(ctx.Request.Context(), post); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes one of the caller's posts. Its comments are left in place.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}
	if err := p.posts.DeletePost(ctx.Request.Context(), post.ID); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, nil)
}

// ownedPost loads the post named by :id if the caller owns it, answering 404 otherwise.
func (p *PostController) ownedPost(ctx *gin.Context) (*models.Post, bool) {
	me, ok := currentUser(ctx)
	if !ok {
		return nil, false
	}
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		respondError(ctx, store.ErrNotFound)
		return nil, false
	}
	post, err := p.posts.GetOwnedPost(ctx.Request.Context(), id, me.ID)
	if err != nil {
		respondError(ctx, err)
		return nil, false
	}
	return post, true
}
