package store

import (
	"context"
	"time"

	"github.com/cppla/autoblog/models"
)

func (s *GormStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	return translate("create comment", s.session(ctx).Create(comment).Error)
}

func (s *GormStore) GetAuthoredComment(ctx context.Context, id, authorID uint) (*models.Comment, error) {
	var c models.Comment
	if err := s.session(ctx).Where("id = ? AND author_id = ?", id, authorID).First(&c).Error; err != nil {
		return nil, translate("get comment", err)
	}
	return &c, nil
}

func (s *GormStore) FindComment(ctx context.Context, id, postID, authorID uint) (*models.Comment, error) {
	var c models.Comment
	err := s.session(ctx).
		Where("id = ? AND post_id = ? AND author_id = ?", id, postID, authorID).
		First(&c).Error
	if err != nil {
		return nil, translate("find comment", err)
	}
	return &c, nil
}

func (s *GormStore) ListAuthoredComments(ctx context.Context, postID, authorID uint, page Page) ([]models.Comment, error) {
	page = clampPage(page)
	comments := []models.Comment{}
	err := s.session(ctx).
		Where("post_id = ? AND author_id = ?", postID, authorID).
		Order("id ASC").
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&comments).Error
	if err != nil {
		return nil, translate("list comments", err)
	}
	return comments, nil
}

func (s *GormStore) UpdateComment(ctx context.Context, comment *models.Comment) error {
	return translate("update comment", s.session(ctx).Save(comment).Error)
}

func (s *GormStore) DeleteComment(ctx context.Context, id uint) error {
	res := s.session(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return translate("delete comment", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("delete comment", ErrNotFound)
	}
	return nil
}

func (s *GormStore) CommentStamps(ctx context.Context, from, to time.Time) ([]models.CommentStamp, error) {
	stamps := []models.CommentStamp{}
	err := s.session(ctx).
		Model(&models.Comment{}).
		Select("created_at", "is_blocked").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Scan(&stamps).Error
	if err != nil {
		return nil, translate("comment stamps", err)
	}
	return stamps, nil
}
