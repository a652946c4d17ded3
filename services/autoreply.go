package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/autoblog/models"
	"github.com/cppla/autoblog/store"
	"github.com/cppla/autoblog/tasks"
)

// AutoreplyJobKind identifies autoreply jobs on the task runner.
const AutoreplyJobKind = "autoreply"

type autoreplyPayload struct {
	PostID uint `json:"post_id"`
}

// AutoreplyScheduler answers new comments on autoreply posts with the owner's canned message.
type AutoreplyScheduler struct {
	posts    store.PostStore
	comments store.CommentStore
	runner   tasks.Runner
	logger   *zap.Logger

	// DelayUnit scales a post's autoreply_delay; one second outside tests.
	DelayUnit time.Duration
}

// NewAutoreplyScheduler registers the autoreply handler on runner.
func NewAutoreplyScheduler(posts store.PostStore, comments store.CommentStore, runner tasks.Runner, logger *zap.Logger) *AutoreplyScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AutoreplyScheduler{
		posts:     posts,
		comments:  comments,
		runner:    runner,
		logger:    logger,
		DelayUnit: time.Second,
	}
	runner.Register(AutoreplyJobKind, s.execute)
	return s
}

// OnCommentCreated schedules one autoreply for post when it has autoreply enabled.
// It returns immediately; scheduling failures are logged.
func (s *AutoreplyScheduler) OnCommentCreated(ctx context.Context, post *models.Post) {
	if post == nil || !post.Autoreply {
		return
	}
	job, err := tasks.NewJob(AutoreplyJobKind, autoreplyPayload{PostID: post.ID})
	if err != nil {
		s.logger.Error("build autoreply job", zap.Uint("post_id", post.ID), zap.Error(err))
		return
	}
	delay := time.Duration(post.AutoreplyDelay) * s.DelayUnit
	if err := s.runner.Schedule(ctx, job, delay); err != nil {
		s.logger.Error("schedule autoreply", zap.Uint("post_id", post.ID), zap.Error(err))
		return
	}
	s.logger.Debug("autoreply scheduled", zap.Uint("post_id", post.ID), zap.String("job_id", job.ID), zap.Duration("delay", delay))
}

// execute inserts the autoreply if the post still exists. The comment is written
// straight to the store so it never triggers another autoreply.
func (s *AutoreplyScheduler) execute(ctx context.Context, job tasks.Job) error {
	var p autoreplyPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("decode autoreply payload: %w", err)
	}

	post, err := s.posts.GetPost(ctx, p.PostID)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Debug("autoreply skipped, post gone", zap.Uint("post_id", p.PostID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load post %d: %w", p.PostID, err)
	}

	reply := &models.Comment{
		Content:  post.AutoreplyMsg,
		PostID:   post.ID,
		AuthorID: post.OwnerID,
	}
	if err := s.comments.CreateComment(ctx, reply); err != nil {
		return fmt.Errorf("insert autoreply for post %d: %w", post.ID, err)
	}
	s.logger.Info("autoreply inserted", zap.Uint("post_id", post.ID), zap.Uint("comment_id", reply.ID))
	return nil
}
