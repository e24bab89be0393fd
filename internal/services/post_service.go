package services

import (
	"database/sql"
	"errors"

	"github.com/teovin/minipost/internal/models"
)

// ErrPostNotFound means no post matched the id and owner. A post
// owned by someone else is indistinguishable from one that does not
// exist.
var ErrPostNotFound = errors.New("post not found")

// PostServiceProvider defines the interface for the post store. Every
// mutation is scoped by id and owner in a single statement, so
// concurrent requests cannot race on a read-modify-write.
type PostServiceProvider interface {
	Create(title, content string, ownerID int) (models.Post, error)
	GetByIDAndOwner(id, ownerID int) (models.Post, error)
	ListByOwner(ownerID int) ([]models.Post, error)
	ListAll() ([]models.Post, error)
	MarkComplete(id, ownerID int) error
	Delete(id, ownerID int) error
}

// PostService provides business logic for post management.
type PostService struct {
	db *sql.DB
}

// NewPostService creates a new PostService.
func NewPostService(db *sql.DB) *PostService {
	return &PostService{db: db}
}

// Create stores a new post owned by ownerID. Ownership is set here
// once and no operation changes it afterwards.
func (s *PostService) Create(title, content string, ownerID int) (models.Post, error) {
	res, err := s.db.Exec("INSERT INTO posts(title, content, user_id) VALUES(?, ?, ?)", title, content, ownerID)
	if err != nil {
		return models.Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Post{}, err
	}

	return models.Post{ID: int(id), Title: title, Content: content, UserID: ownerID}, nil
}

// GetByIDAndOwner retrieves a post by id, visible only to its owner.
func (s *PostService) GetByIDAndOwner(id, ownerID int) (models.Post, error) {
	var post models.Post
	row := s.db.QueryRow("SELECT id, title, content, user_id, complete FROM posts WHERE id = ? AND user_id = ?", id, ownerID)
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.UserID, &post.Complete)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Post{}, ErrPostNotFound
		}
		return models.Post{}, err
	}
	return post, nil
}

// ListByOwner retrieves all posts owned by ownerID.
func (s *PostService) ListByOwner(ownerID int) ([]models.Post, error) {
	return s.list("SELECT id, title, content, user_id, complete FROM posts WHERE user_id = ? ORDER BY id", ownerID)
}

// ListAll retrieves every post regardless of owner.
func (s *PostService) ListAll() ([]models.Post, error) {
	return s.list("SELECT id, title, content, user_id, complete FROM posts ORDER BY id")
}

func (s *PostService) list(query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.UserID, &post.Complete); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// MarkComplete sets complete on a post, scoped to its owner. It is an
// unconditional set, not a toggle.
func (s *PostService) MarkComplete(id, ownerID int) error {
	res, err := s.db.Exec("UPDATE posts SET complete = 1 WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a post, scoped to its owner.
func (s *PostService) Delete(id, ownerID int) error {
	res, err := s.db.Exec("DELETE FROM posts WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}
