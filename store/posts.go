package store

import (
	"context"

	"github.com/cppla/autoblog/models"
)

func (s *GormStore) CreatePost(ctx context.Context, post *models.Post) error {
	return translate("create post", s.session(ctx).Create(post).Error)
}

func (s *GormStore) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.session(ctx).First(&post, id).Error; err != nil {
		return nil, translate("get post", err)
	}
	return &post, nil
}

func (s *GormStore) GetOwnedPost(ctx context.Context, id, ownerID uint) (*models.Post, error) {
	var post models.Post
	if err := s.session(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&post).Error; err != nil {
		return nil, translate("get owned post", err)
	}
	return &post, nil
}

func (s *GormStore) ListOwnedPosts(ctx context.Context, ownerID uint, page Page) ([]models.Post, error) {
	page = clampPage(page)
	posts := []models.Post{}
	err := s.session(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, translate("list posts", err)
	}
	return posts, nil
}

func (s *GormStore) UpdatePost(ctx context.Context, post *models.Post) error {
	return translate("update post", s.session(ctx).Save(post).Error)
}

func (s *GormStore) DeletePost(ctx context.Context, id uint) error {
	res := s.session(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return translate("delete post", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("delete post", ErrNotFound)
	}
	return nil
}
