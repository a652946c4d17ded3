package store

import (
	"context"
	"errors"
	"time"

	"github.com/cppla/autoblog/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Page bounds a list query.
type Page struct {
	Skip  int
	Limit int
}

type Store interface {
	UserStore
	PostStore
	CommentStore
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserExists reports whether username or email is already taken by an account other than exceptID.
	UserExists(ctx context.Context, username, email string, exceptID uint) (bool, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uint) error
}

type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	GetOwnedPost(ctx context.Context, id, ownerID uint) (*models.Post, error)
	ListOwnedPosts(ctx context.Context, ownerID uint, page Page) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uint) error
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetAuthoredComment(ctx context.Context, id, authorID uint) (*models.Comment, error)
	// FindComment matches on id, post and author together.
	FindComment(ctx context.Context, id, postID, authorID uint) (*models.Comment, error)
	ListAuthoredComments(ctx context.Context, postID, authorID uint, page Page) ([]models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id uint) error
	// CommentStamps returns creation time and blocked flag of comments created in [from, to).
	CommentStamps(ctx context.Context, from, to time.Time) ([]models.CommentStamp, error)
}
