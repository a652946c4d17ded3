package models

// Post is a blog entry owned by a single user, optionally configured to auto-reply to new comments.
type Post struct {
	Entity
	OwnerID        uint   `gorm:"index;not null" json:"owner_id"`
	Title          string `gorm:"size:255;index;not null" json:"title"`
	Content        string `gorm:"type:text;not null" json:"content"`
	Autoreply      bool   `gorm:"not null" json:"autoreply"`
	AutoreplyDelay int    `gorm:"not null" json:"autoreply_delay"` // seconds
	AutoreplyMsg   string `gorm:"type:text" json:"autoreply_msg"`
}

// PostPatch carries the optional fields of a post update.
type PostPatch struct {
	Title          *string `json:"title"`
	Content        *string `json:"content"`
	Autoreply      *bool   `json:"autoreply"`
	AutoreplyDelay *int    `json:"autoreply_delay"`
	AutoreplyMsg   *string `json:"autoreply_msg"`
}

// Apply merges the present fields of p into post.
func (p PostPatch) Apply(post *Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Autoreply != nil {
		post.Autoreply = *p.Autoreply
	}
	if p.AutoreplyDelay != nil {
		post.AutoreplyDelay = *p.AutoreplyDelay
	}
	if p.AutoreplyMsg != nil {
		post.AutoreplyMsg = *p.AutoreplyMsg
	}
}
