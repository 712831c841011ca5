package domain

import "time"

// Post represents a published blog entry. Title and Text are stored
// HTML-escaped; Slug is derived from Title and unique across posts.
type Post struct {
	ID         string
	Title      string
	Text       string
	Image      string
	Slug       string
	Timestamp  string
	LastUpdate string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Comments   []Comment
}

// Comment belongs to a post by id only; the store does not enforce the
// reference.
type Comment struct {
	ID        string
	PostID    string
	Username  string
	Text      string
	Timestamp string
	CreatedAt time.Time
}
