package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/autoblog/models"
	"github.com/cppla/autoblog/services"
	"github.com/cppla/autoblog/store"
	"github.com/cppla/autoblog/utils"
)

// CommentController manages comments authored by the caller.
type CommentController struct {
	posts     store.PostStore
	comments  store.CommentStore
	autoreply *services.AutoreplyScheduler
	moderator services.Moderator
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(posts store.PostStore, comments store.CommentStore, autoreply *services.AutoreplyScheduler, moderator services.Moderator) *CommentController {
	return &CommentController{posts: posts, comments: comments, autoreply: autoreply, moderator: moderator}
}

// CreateComment stores a comment on an existing post and triggers the post's autoreply.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	me, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
		PostID  uint   `json:"post_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 40030, "invalid request payload")
		return
	}

	rctx := ctx.Request.Context()
	post, err := c.posts.GetPost(rctx, req.PostID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	content := utils.Sanitize(req.Content)
	comment := models.Comment{
		PostID:    post.ID,
		AuthorID:  me.ID,
		Content:   content,
		IsBlocked: c.blocked(content),
	}
	if err := c.comments.CreateComment(rctx, &comment); err != nil {
		respondError(ctx, err)
		return
	}
	c.autoreply.OnCommentCreated(rctx, post)
	utils.Created(ctx, gin.H{"comment": comment})
}

// ListComments returns the caller's comments on the post given by ?post_id.
func (c *CommentController) ListComments(ctx *gin.Context) {
	me, ok := currentUser(ctx)
	if !ok {
		return
	}
	postID, ok := parseUintQuery(ctx, "post_id")
	if !ok {
		badRequest(ctx, 40031, "post_id is required")
		return
	}
	page, ok := parsePage(ctx)
	if !ok {
		badRequest(ctx, 40032, "invalid pagination parameters")
		return
	}
	comments, err := c.comments.ListAuthoredComments(ctx.Request.Context(), postID, me.ID, page)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": comments, "pagination": pagination(page)})
}

// GetComment returns one of the caller's comments.
func (c *CommentController) GetComment(ctx *gin.Context) {
	comment, ok := c.authoredComment(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"comment": comment})
}

// UpdateComment edits a comment matched by id, ?post_id and ?author_id, which must be the caller.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	me, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		respondError(ctx, store.ErrNotFound)
		return
	}
	postID, okPost := parseUintQuery(ctx, "post_id")
	authorID, okAuthor := parseUintQuery(ctx, "author_id")
	if !okPost || !okAuthor {
		badRequest(ctx, 40033, "post_id and author_id are required")
		return
	}
	if authorID != me.ID {
		respondError(ctx, store.ErrNotFound)
		return
	}

	rctx := ctx.Request.Context()
	comment, err := c.comments.FindComment(rctx, id, postID, authorID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	var patch models.CommentPatch
	if err := bindOptionalJSON(ctx, &patch); err != nil {
		badRequest(ctx, 40030, "invalid request payload")
		return
	}
	if patch.Content != nil {
		v := utils.Sanitize(*patch.Content)
		patch.Content = &v
		comment.IsBlocked = c.blocked(v)
	}
	patch.Apply(comment)
	if err := c.comments.UpdateComment(rctx, comment); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment removes one of the caller's comments.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	comment, ok := c.authoredComment(ctx)
	if !ok {
		return
	}
	if err := c.comments.DeleteComment(ctx.Request.Context(), comment.ID); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, nil)
}

func (c *CommentController) authoredComment(ctx *gin.Context) (*models.Comment, bool) {
	me, ok := currentUser(ctx)
	if !ok {
		return nil, false
	}
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		respondError(ctx, store.ErrNotFound)
		return nil, false
	}
	comment, err := c.comments.GetAuthoredComment(ctx.Request.Context(), id, me.ID)
	if err != nil {
		respondError(ctx, err)
		return nil, false
	}
	return comment, true
}

func (c *CommentController) blocked(content string) bool {
	return c.moderator != nil && c.moderator.Blocked(content)
}
