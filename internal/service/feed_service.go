package service

import (
	"context"

	"ripple/internal/cache"
	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/notifications"
	"ripple/internal/repository"
	"ripple/internal/seed"
)

// DefaultFeedLimit is the number of posts returned by the feed when no limit
// is given.
const DefaultFeedLimit = 10

// generatorUsername owns posts created through the bulk generator.
const generatorUsername = "ripple_bot"

// FeedService handles posts, comments and likes.
type FeedService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	emitter     notifications.Emitter
}

// NewFeedService creates a FeedService. emitter may be nil when realtime
// notifications are disabled.
func NewFeedService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	emitter notifications.Emitter,
) *FeedService {
	return &FeedService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		emitter:     emitter,
	}
}

// CreatePostInput carries the fields accepted by CreatePost.
type CreatePostInput struct {
	UserID   uint
	Content  string
	ImageURL string
}

// AddCommentInput carries the fields accepted by AddComment.
type AddCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

// ListRecentPosts returns the newest posts with their authors and comments.
// The default window is cached; custom limits always hit the database.
func (s *FeedService) ListRecentPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	if limit != DefaultFeedLimit {
		return s.postRepo.ListRecent(ctx, limit)
	}

	var posts []*models.Post
	err := cache.Aside(ctx, cache.FeedKey(), &posts, cache.FeedTTL, func() error {
		var fetchErr error
		posts, fetchErr = s.postRepo.ListRecent(ctx, limit)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

// GetPost returns a single post with its author and comments.
func (s *FeedService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		fetched, fetchErr := s.postRepo.GetByID(ctx, id)
		if fetchErr != nil {
			return fetchErr
		}
		post = *fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost stores a new post and notifies connected feed listeners. The
// notification is best effort: a failed emit never fails the request.
func (s *FeedService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}

	post := &models.Post{
		UserID:   in.UserID,
		Content:  in.Content,
		ImageURL: in.ImageURL,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	// Reselect so the response carries the author and DB-assigned fields.
	created, err := s.postRepo.GetSummary(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	if s.emitter != nil {
		if emitErr := s.emitter.EmitNewPost(ctx, created); emitErr != nil {
			middleware.Logger.WarnContext(ctx, "new post notification failed",
				"post_id", created.ID, "error", emitErr)
		}
	}

	return created, nil
}

// AddComment attaches a comment to an existing post.
func (s *FeedService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if in.Content == "" {
		return nil, models.NewValidationError("Comment is required")
	}

	exists, err := s.postRepo.Exists(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}

	comment := &models.Comment{
		PostID:  in.PostID,
		UserID:  in.UserID,
		Content: in.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// LikePost adds one like to a post and returns the updated post. Likes only
// ever go up; the same user may like a post any number of times.
func (s *FeedService) LikePost(ctx context.Context, id uint) (*models.Post, error) {
	if err := s.postRepo.IncrementLikes(ctx, id); err != nil {
		return nil, err
	}
	return s.postRepo.GetSummary(ctx, id)
}

// GeneratePosts bulk-creates count posts with generated content, attributed
// to a dedicated generator account.
func (s *FeedService) GeneratePosts(ctx context.Context, count int) (int, error) {
	if count < 1 || count > 100 {
		return 0, models.NewValidationError("Count must be between 1 and 100")
	}

	bot, err := s.ensureGeneratorUser(ctx)
	if err != nil {
		return 0, err
	}

	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		posts = append(posts, &models.Post{
			UserID:  bot.ID,
			Content: seed.RandomContent(),
		})
	}

	if err := s.postRepo.CreateBatch(ctx, posts); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *FeedService) ensureGeneratorUser(ctx context.Context) (*models.User, error) {
	bot, err := s.userRepo.GetByUsername(ctx, generatorUsername)
	if err != nil {
		return nil, err
	}
	if bot != nil {
		return bot, nil
	}

	bot = &models.User{
		Username: generatorUsername,
		Email:    generatorUsername + "@ripple.local",
		// The generator account is never logged into; an unguessable hash-less
		// password value keeps it that way.
		Password: "!locked",
		ImageURL: "https://i.pravatar.cc/150?u=" + generatorUsername,
	}
	if err := s.userRepo.Create(ctx, bot); err != nil {
		// Lost a creation race with a concurrent generate call.
		if existing, getErr := s.userRepo.GetByUsername(ctx, generatorUsername); getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return bot, nil
}
