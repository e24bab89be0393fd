package models

// Post is a piece of content owned by exactly one user. UserID is set
// at creation and never changes; it is not a real foreign key, so a
// post can outlive its owner.
type Post struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	UserID   int    `json:"user_id"`
	Complete bool   `json:"complete"`
}
