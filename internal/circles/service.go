package circles

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit applies when the client does not request a page size.
	DefaultLimit = 20
	maxLimit     = 100
)

var ErrEmptyBody = errors.New("post body required")

// Service wraps repository operations with feed pagination rules
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// ClampLimit bounds a requested page size to [1, 100].
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// List returns one page of a circle's feed. It fetches limit+1 documents so
// HasMore is known without a second count query.
func (s *Service) List(ctx context.Context, circleID string, before time.Time, limit int) (*Page, error) {
	limit = ClampLimit(limit)
	posts, err := s.repo.ListByCircle(ctx, circleID, before, limit+1)
	if err != nil {
		return nil, err
	}
	page := &Page{Items: posts, HasMore: len(posts) > limit}
	if page.HasMore {
		page.Items = posts[:limit]
	}
	if page.HasMore && len(page.Items) > 0 {
		last := page.Items[len(page.Items)-1].CreatedAt
		page.NextBefore = &last
	}
	return page, nil
}

// Create publishes a post into the circle on behalf of authorUID.
func (s *Service) Create(ctx context.Context, circleID, authorUID, body string) (*Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	p := &Post{
		ID:        uuid.NewString(),
		CircleID:  circleID,
		AuthorUID: authorUID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
