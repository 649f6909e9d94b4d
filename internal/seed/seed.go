// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"ripple/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d test users created", len(users))

	posts, err := createPosts(db, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d posts created", len(posts))

	if err := createComments(db, users, posts); err != nil {
		return fmt.Errorf("failed to create comments: %w", err)
	}

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE comments, posts, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func generateUsername() string {
	return strings.ToLower(fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)))
}

// RandomContent returns a short generated sentence suitable for post or
// comment bodies.
func RandomContent() string {
	return gofakeit.Sentence(gofakeit.Number(4, 12))
}

func generateParagraph(sentences int) string {
	var sb strings.Builder
	for i := 0; i < sentences; i++ {
		sb.WriteString(RandomContent())
		sb.WriteString(" ")
	}
	return strings.TrimSpace(sb.String())
}

func createUsers(db *gorm.DB, count int) ([]models.User, error) {
	users := make([]models.User, 0, count)
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	// Always include a known login for manual testing
	if count >= 1 {
		user := models.User{
			Username: "test",
			Email:    "test@example.com",
			Password: string(hashedPassword),
			ImageURL: "https://i.pravatar.cc/150?u=test",
		}
		if err := db.Create(&user).Error; err == nil {
			users = append(users, user)
		}
	}

	for i := len(users); i < count; i++ {
		// Ensure uniqueness roughly
		username := fmt.Sprintf("%s%d", generateUsername(), i)

		user := models.User{
			Username: username,
			Email:    fmt.Sprintf("%s@example.com", username),
			Password: string(hashedPassword),
			ImageURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		}

		if err := db.Create(&user).Error; err != nil {
			log.Printf("Failed to create user %s: %v", username, err)
			continue
		}
		users = append(users, user)

		if i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}

	return users, nil
}

func createPosts(db *gorm.DB, users []models.User, count int) ([]models.Post, error) {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	posts := make([]models.Post, 0, count)

	for i := 0; i < count; i++ {
		user := users[r.Intn(len(users))]

		hasImage := r.Float32() < 0.4
		var imageURL string
		if hasImage {
			imageURL = fmt.Sprintf("https://picsum.photos/seed/%d/800/800", r.Intn(10000))
		}

		contentLen := r.Intn(5) + 1 // 1 to 5 sentences

		post := models.Post{
			Content:  generateParagraph(contentLen),
			UserID:   user.ID,
			ImageURL: imageURL,
			Likes:    r.Intn(100),
		}

		if err := db.Create(&post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)

		if i%100 == 0 {
			log.Printf("Created %d posts...", i)
		}
	}

	return posts, nil
}

func createComments(db *gorm.DB, users []models.User, posts []models.Post) error {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	total := 0

	for _, post := range posts {
		for i := 0; i < r.Intn(4); i++ {
			user := users[r.Intn(len(users))]
			comment := models.Comment{
				PostID:  post.ID,
				UserID:  user.ID,
				Content: RandomContent(),
			}
			if err := db.Create(&comment).Error; err != nil {
				return err
			}
			total++
		}
	}

	log.Printf("✓ %d comments created", total)
	return nil
}
