package store

import (
	"context"

	"github.com/cppla/autoblog/models"
)

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate("create user", s.session(ctx).Create(user).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.session(ctx).First(&user, id).Error; err != nil {
		return nil, translate("get user", err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.session(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate("get user by username", err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.session(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate("get user by email", err)
	}
	return &user, nil
}

func (s *GormStore) UserExists(ctx context.Context, username, email string, exceptID uint) (bool, error) {
	var n int64
	q := s.session(ctx).Model(&models.User{}).Where("username = ? OR email = ?", username, email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, translate("check user", err)
	}
	return n > 0, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, user *models.User) error {
	return translate("update user", s.session(ctx).Save(user).Error)
}

func (s *GormStore) DeleteUser(ctx context.Context, id uint) error {
	res := s.session(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return translate("delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("delete user", ErrNotFound)
	}
	return nil
}
