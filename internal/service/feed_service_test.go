package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	createBatchFn    func(context.Context, []*models.Post) error
	getByIDFn        func(context.Context, uint) (*models.Post, error)
	getSummaryFn     func(context.Context, uint) (*models.Post, error)
	listRecentFn     func(context.Context, int) ([]*models.Post, error)
	existsFn         func(context.Context, uint) (bool, error)
	incrementLikesFn func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) CreateBatch(ctx context.Context, posts []*models.Post) error {
	return s.createBatchFn(ctx, posts)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetSummary(ctx context.Context, id uint) (*models.Post, error) {
	return s.getSummaryFn(ctx, id)
}
func (s *postRepoStub) ListRecent(ctx context.Context, limit int) ([]*models.Post, error) {
	return s.listRecentFn(ctx, limit)
}
func (s *postRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) IncrementLikes(ctx context.Context, id uint) error {
	return s.incrementLikesFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:         func(context.Context, *models.Post) error { return nil },
		createBatchFn:    func(context.Context, []*models.Post) error { return nil },
		getByIDFn:        func(context.Context, uint) (*models.Post, error) { return &models.Post{}, nil },
		getSummaryFn:     func(context.Context, uint) (*models.Post, error) { return &models.Post{}, nil },
		listRecentFn:     func(context.Context, int) ([]*models.Post, error) { return nil, nil },
		existsFn:         func(context.Context, uint) (bool, error) { return true, nil },
		incrementLikesFn: func(context.Context, uint) error { return nil },
	}
}

type commentRepoStub struct {
	createFn  func(context.Context, *models.Comment) error
	getByIDFn func(context.Context, uint) (*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:  func(context.Context, *models.Comment) error { return nil },
		getByIDFn: func(context.Context, uint) (*models.Comment, error) { return &models.Comment{}, nil },
	}
}

type emitterStub struct {
	emitFn func(context.Context, *models.Post) error
}

func (s *emitterStub) EmitNewPost(ctx context.Context, post *models.Post) error {
	return s.emitFn(ctx, post)
}

func newFeedService(posts *postRepoStub, comments *commentRepoStub, users *userRepoStub, emitter *emitterStub) *FeedService {
	if emitter == nil {
		return NewFeedService(posts, comments, users, nil)
	}
	return NewFeedService(posts, comments, users, emitter)
}

func TestFeedService_ListRecentPosts(t *testing.T) {
	t.Parallel()

	t.Run("defaults to ten posts", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		var gotLimit int
		repo.listRecentFn = func(_ context.Context, limit int) ([]*models.Post, error) {
			gotLimit = limit
			return []*models.Post{{ID: 1}}, nil
		}
		svc := newFeedService(repo, noopCommentRepo(), noopUserRepo(), nil)

		posts, err := svc.ListRecentPosts(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultFeedLimit, gotLimit)
		assert.Len(t, posts, 1)
	})

	t.Run("empty feed is an empty slice, not nil", func(t *testing.T) {
		t.Parallel()
		svc := newFeedService(noopPostRepo(), noopCommentRepo(), noopUserRepo(), nil)
		posts, err := svc.ListRecentPosts(context.Background(), 0)
		require.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
	})

	t.Run("custom limit is passed through", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		var gotLimit int
		repo.listRecentFn = func(_ context.Context, limit int) ([]*models.Post, error) {
			gotLimit = limit
			return []*models.Post{}, nil
		}
		svc := newFeedService(repo, noopCommentRepo(), noopUserRepo(), nil)
		_, err := svc.ListRecentPosts(context.Background(), 25)
		require.NoError(t, err)
		assert.Equal(t, 25, gotLimit)
	})
}

func TestFeedService_GetPost(t *testing.T) {
	t.Parallel()

	t.Run("not found propagates", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", id)
		}
		svc := newFeedService(repo, noopCommentRepo(), noopUserRepo(), nil)
		_, err := svc.GetPost(context.Background(), 404)
		assertAppErrorCode(t, err, models.CodeNotFound)
	})

	t.Run("returns the post", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, Content: "hello", Comments: []models.Comment{}}, nil
		}
		svc := newFeedService(repo, noopCommentRepo(), noopUserRepo(), nil)
		post, err := svc.GetPost(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, uint(3), post.ID)
		assert.Equal(t, "hello", post.Content)
	})
}

func TestFeedService_CreatePost(t *testing.T) {
	t.Parallel()

	t.Run("round trip keeps content and starts with zero likes", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.createFn = func(_ context.Context, p *models.Post) error {
			p.ID = 5
			return nil
		}
		repo.getSummaryFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, Content: "hello", Likes: 0, Comments: []models.Comment{}}, nil
		}
		svc := newFeedService(repo, noopCommentRepo(), noopUserRepo(), nil)

		post, err := svc.CreatePost(context.Background(), CreatePostInput{
			UserID: 1, Content: "hello"})
		require.NoError(t, err)
		assert.Equal(t, "hello", post.Content)
		assert.Equal(t, 0, post.Likes)
		assert.Empty(t, post.Comments)
		assert.NotNil(t, post.Comments)
	})

	t.Run("empty content rejected before hitting storage", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		created := false
		repo.createFn = func(context.Context, *models.Post) error {
			created = true
			return nil
		}
		svc := newFeedService(repo, noopCommentRepo(), noopUserRepo(), nil)
		_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 1})
		assertAppErrorCode(t, err, models.CodeValidation)
		assert.False(t, created)
	})

	t.Run("notifies listeners about the new post", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.createFn = func(_ context.Context, p *models.Post) error {
			p.ID = 8
			return nil
		}
		repo.getSummaryFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, Content: "fresh"}, nil
		}
		var emitted *models.Post
		emitter := &emitterStub{emitFn: func(_ context.Context, p *models.Post) error {
			emitted = p
			return nil
		}}
		svc := newFeedService(repo, noopCommentRepo(), noopUserRepo(), emitter)

		_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 1, Content: "fresh"})
		require.NoError(t, err)
		require.NotNil(t, emitted)
		assert.Equal(t, uint(8), emitted.ID)
	})

	t.Run("notification failure never fails the request", func(t *testing.T) {
		t.Parallel()
		emitter := &emitterStub{emitFn: func(context.Context, *models.Post) error {
			return errors.New("redis is down")
		}}
		svc := newFeedService(noopPostRepo(), noopCommentRepo(), noopUserRepo(), emitter)
		post, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 1, Content: "still works"})
		require.NoError(t, err)
		require.NotNil(t, post)
	})
}

func TestFeedService_AddComment(t *testing.T) {
	t.Parallel()

	t.Run("empty comment rejected", func(t *testing.T) {
		t.Parallel()
		svc := newFeedService(noopPostRepo(), noopCommentRepo(), noopUserRepo(), nil)
		_, err := svc.AddComment(context.Background(), AddCommentInput{UserID: 1, PostID: 1})
		assertAppErrorCode(t, err, models.CodeValidation)
	})

	t.Run("missing post is not found", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.existsFn = func(context.Context, uint) (bool, error) { return false, nil }
		svc := newFeedService(repo, noopCommentRepo(), noopUserRepo(), nil)
		_, err := svc.AddComment(context.Background(), AddCommentInput{
			UserID: 1, PostID: 404, Content: "hi"})
		assertAppErrorCode(t, err, models.CodeNotFound)
	})

	t.Run("comment is reselected with its author", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.createFn = func(_ context.Context, c *models.Comment) error {
			c.ID = 21
			return nil
		}
		comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, Content: "hi", User: models.User{Username: "alice"}}, nil
		}
		svc := newFeedService(noopPostRepo(), comments, noopUserRepo(), nil)

		comment, err := svc.AddComment(context.Background(), AddCommentInput{
			UserID: 1, PostID: 2, Content: "hi"})
		require.NoError(t, err)
		assert.Equal(t, uint(21), comment.ID)
		assert.Equal(t, "alice", comment.User.Username)
	})
}

func TestFeedService_LikePost(t *testing.T) {
	t.Parallel()

	t.Run("every like counts exactly once", func(t *testing.T) {
		t.Parallel()
		var mu sync.Mutex
		likes := 0
		repo := noopPostRepo()
		repo.incrementLikesFn = func(_ context.Context, _ uint) error {
			mu.Lock()
			likes++
			mu.Unlock()
			return nil
		}
		repo.getSummaryFn = func(_ context.Context, id uint) (*models.Post, error) {
			mu.Lock()
			defer mu.Unlock()
			return &models.Post{ID: id, Likes: likes}, nil
		}
		svc := newFeedService(repo, noopCommentRepo(), noopUserRepo(), nil)

		const n = 25
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.LikePost(context.Background(), 1)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		post, err := svc.LikePost(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, n+1, post.Likes)
	})

	t.Run("missing post is not found", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.incrementLikesFn = func(_ context.Context, id uint) error {
			return models.NewNotFoundError("Post", id)
		}
		svc := newFeedService(repo, noopCommentRepo(), noopUserRepo(), nil)
		_, err := svc.LikePost(context.Background(), 404)
		assertAppErrorCode(t, err, models.CodeNotFound)
	})
}

func TestFeedService_GeneratePosts(t *testing.T) {
	t.Parallel()

	t.Run("count bounds are enforced", func(t *testing.T) {
		t.Parallel()
		svc := newFeedService(noopPostRepo(), noopCommentRepo(), noopUserRepo(), nil)
		for _, count := range []int{0, -1, 101} {
			_, err := svc.GeneratePosts(context.Background(), count)
			assertAppErrorCode(t, err, models.CodeValidation)
		}
	})

	t.Run("creates the requested number of posts for the generator account", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.getByUsernameFn = func(_ context.Context, _ string) (*models.User, error) {
			return &models.User{ID: 77, Username: "ripple_bot"}, nil
		}
		repo := noopPostRepo()
		var batch []*models.Post
		repo.createBatchFn = func(_ context.Context, posts []*models.Post) error {
			batch = posts
			return nil
		}
		svc := newFeedService(repo, noopCommentRepo(), users, nil)

		count, err := svc.GeneratePosts(context.Background(), 15)
		require.NoError(t, err)
		assert.Equal(t, 15, count)
		require.Len(t, batch, 15)
		for _, p := range batch {
			assert.Equal(t, uint(77), p.UserID)
			assert.NotEmpty(t, p.Content)
		}
	})

	t.Run("generator account is created on first use", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		var created *models.User
		users.createFn = func(_ context.Context, u *models.User) error {
			u.ID = 100
			created = u
			return nil
		}
		svc := newFeedService(noopPostRepo(), noopCommentRepo(), users, nil)

		_, err := svc.GeneratePosts(context.Background(), 1)
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "ripple_bot", created.Username)
	})
}
