// Package storetest opens throwaway in-memory databases for tests.
package storetest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cppla/autoblog/config"
	"github.com/cppla/autoblog/models"
	"github.com/cppla/autoblog/store"
)

var seq atomic.Int64

// Open returns a GormStore backed by a private in-memory sqlite database.
func Open(t testing.TB) *store.GormStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_time_format=sqlite", name, seq.Add(1))
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: dsn,
		LogLevel:    "silent",
	}, &models.User{}, &models.Post{}, &models.Comment{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	st := store.NewGormStore(db)
	t.Cleanup(func() {
		if sqlDB, err := st.DB().DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return st
}

// PostComments returns every comment on postID regardless of author, oldest first.
func PostComments(t testing.TB, st *store.GormStore, postID uint) []models.Comment {
	t.Helper()
	comments := []models.Comment{}
	if err := st.DB().Where("post_id = ?", postID).Order("id ASC").Find(&comments).Error; err != nil {
		t.Fatalf("list comments of post %d: %v", postID, err)
	}
	return comments
}
