package circles

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fake repo holding posts sorted newest-first like the Mongo query would
type fakeRepo struct {
	posts []*Post
}

func (f *fakeRepo) Insert(ctx context.Context, p *Post) error {
	f.posts = append(f.posts, p)
	return nil
}

func (f *fakeRepo) ListByCircle(ctx context.Context, circleID string, before time.Time, limit int) ([]*Post, error) {
	matched := []*Post{}
	for _, p := range f.posts {
		if p.CircleID != circleID {
			continue
		}
		if !before.IsZero() && !p.CreatedAt.Before(before) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func seed(t *testing.T, repo *fakeRepo, circleID string, n int) time.Time {
	t.Helper()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		repo.posts = append(repo.posts, &Post{
			ID:        circleID + "-p" + string(rune('a'+i)),
			CircleID:  circleID,
			AuthorUID: "author",
			Body:      "post",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return base
}

func TestList_HasMore(t *testing.T) {
	repo := &fakeRepo{}
	seed(t, repo, "c1", 6)
	svc := NewService(repo)
	ctx := context.Background()

	page, err := svc.List(ctx, "c1", time.Time{}, 5)
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
	require.True(t, page.HasMore)
	require.NotNil(t, page.NextBefore)

	// exactly five available: full page, no more
	repo2 := &fakeRepo{}
	seed(t, repo2, "c1", 5)
	page2, err := NewService(repo2).List(ctx, "c1", time.Time{}, 5)
	require.NoError(t, err)
	require.Len(t, page2.Items, 5)
	require.False(t, page2.HasMore)
	require.Nil(t, page2.NextBefore)
}

func TestList_CursorWalk(t *testing.T) {
	repo := &fakeRepo{}
	seed(t, repo, "c1", 7)
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.List(ctx, "c1", time.Time{}, 3)
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.True(t, first.HasMore)

	second, err := svc.List(ctx, "c1", *first.NextBefore, 3)
	require.NoError(t, err)
	require.Len(t, second.Items, 3)
	// no overlap between pages
	for _, a := range first.Items {
		for _, b := range second.Items {
			require.NotEqual(t, a.ID, b.ID)
		}
	}
}

func TestClampLimit(t *testing.T) {
	require.Equal(t, 1, ClampLimit(0))
	require.Equal(t, 1, ClampLimit(-5))
	require.Equal(t, 100, ClampLimit(1000))
	require.Equal(t, 42, ClampLimit(42))
}

func TestCreate(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, "c1", "uid-1", "  hello circle  ")
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.Equal(t, "hello circle", p.Body)
	require.Equal(t, "uid-1", p.AuthorUID)
	require.False(t, p.CreatedAt.IsZero())

	_, err = svc.Create(ctx, "c1", "uid-1", "   ")
	require.ErrorIs(t, err, ErrEmptyBody)
}
