package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type (
	Post struct {
		ID        int64  `json:"id"`
		Title     string `json:"title"`
		Body      string `json:"body"`
		CreatedAt string `json:"createdAt"`
		UpdatedAt string `json:"updatedAt"`
	}
)

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// CreatePost stores a new post and returns it with its assigned id.
func (l *L) CreatePost(ctx context.Context, title, body string) (Post, error) {
	if !l.writeable {
		return Post{}, ErrReadOnly
	}
	now := timestamp()
	res, err := l.db.ExecContext(ctx,
		`insert into posts(title, body, created_at, updated_at) values (?, ?, ?, ?)`,
		title, body, now, now)
	if err != nil {
		return Post{}, fmt.Errorf("unable to store post, cause %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Post{}, fmt.Errorf("unable to read post id, cause %w", err)
	}
	return Post{ID: id, Title: title, Body: body, CreatedAt: now, UpdatedAt: now}, nil
}

// UpdatePost replaces title and body of an existing post.
func (l *L) UpdatePost(ctx context.Context, id int64, title, body string) (Post, error) {
	if !l.writeable {
		return Post{}, ErrReadOnly
	}
	now := timestamp()
	res, err := l.db.ExecContext(ctx,
		`update posts set title = ?, body = ?, updated_at = ? where post_id = ?`,
		title, body, now, id)
	if err != nil {
		return Post{}, fmt.Errorf("unable to update post %v, cause %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Post{}, fmt.Errorf("unable to update post %v, cause %w", id, err)
	}
	if n == 0 {
		return Post{}, PostNotFound{ID: id}
	}
	return l.GetPost(ctx, id)
}

// DeletePost removes a post.
func (l *L) DeletePost(ctx context.Context, id int64) error {
	if !l.writeable {
		return ErrReadOnly
	}
	res, err := l.db.ExecContext(ctx, `delete from posts where post_id = ?`, id)
	if err != nil {
		return fmt.Errorf("unable to delete post %v, cause %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to delete post %v, cause %w", id, err)
	}
	if n == 0 {
		return PostNotFound{ID: id}
	}
	return nil
}

// GetPost loads one post by id.
func (l *L) GetPost(ctx context.Context, id int64) (Post, error) {
	var p Post
	err := l.db.QueryRowContext(ctx,
		`select post_id, title, body, created_at, updated_at from posts where post_id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Body, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, PostNotFound{ID: id}
	} else if err != nil {
		return Post{}, fmt.Errorf("unable to load post %v, cause %w", id, err)
	}
	return p, nil
}

// ListPosts returns every post, newest first.
func (l *L) ListPosts(ctx context.Context) ([]Post, error) {
	rows, err := l.db.QueryContext(ctx,
		`select post_id, title, body, created_at, updated_at from posts order by post_id desc`)
	if err != nil {
		return nil, fmt.Errorf("unable to list posts, cause %w", err)
	}
	defer rows.Close()
	var out []Post
	for rows.Next() {
		var p Post
		err = rows.Scan(&p.ID, &p.Title, &p.Body, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("unable to scan post row, cause %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
