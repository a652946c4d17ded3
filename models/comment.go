package models

import "time"

// Comment represents a reply to a post.
type Comment struct {
	Entity
	PostID    uint   `gorm:"index;not null" json:"post_id"`
	AuthorID  uint   `gorm:"index;not null" json:"author_id"`
	Content   string `gorm:"type:text;not null" json:"content"`
	IsBlocked bool   `gorm:"not null;default:false" json:"is_blocked"`
}

// CommentPatch carries the optional fields of a comment update.
type CommentPatch struct {
	Content *string `json:"content"`
}

// Apply merges the present fields of p into c.
func (p CommentPatch) Apply(c *Comment) {
	if p.Content != nil {
		c.Content = *p.Content
	}
}

// CommentStamp is the slice of a comment the daily breakdown needs.
type CommentStamp struct {
	CreatedAt time.Time
	IsBlocked bool
}

// DailyCommentSummary is one row of the comment breakdown report.
type DailyCommentSummary struct {
	Date            string `json:"date"`
	TotalComments   int    `json:"total_comments"`
	BlockedComments int    `json:"blocked_comments"`
}
