// Package seed populates a store with realistic development data.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"ripple/internal/broker"
	"ripple/internal/engagement"
	"ripple/internal/models"
	"ripple/internal/notifications"
	"ripple/internal/repository"
	"ripple/internal/service"
	"ripple/internal/social"
	"ripple/internal/store"

	"github.com/brianvoe/gofakeit/v6"
)

// Options configuration for the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	NumProducts int
	NumVibes    int
}

// Seeder writes fake data through the same services the API uses, so
// counters, notifications, and derived state come out consistent.
type Seeder struct {
	users       repository.UserRepository
	posts       repository.PostRepository
	products    repository.ProductRepository
	communities repository.CommunityRepository
	vibes       repository.VibeRepository
	engagement  *engagement.Service
	graph       *social.Graph
	chats       *service.ChatService
}

// NewSeeder wires a Seeder over st.
func NewSeeder(st store.Store) *Seeder {
	b := broker.New(st)

	users := repository.NewUserRepository(st)
	posts := repository.NewPostRepository(st, b)
	comments := repository.NewCommentRepository(st, b)
	products := repository.NewProductRepository(st, b)
	communities := repository.NewCommunityRepository(st, b)
	vibes := repository.NewVibeRepository(st, b)
	chats := repository.NewChatRepository(st, b)
	notifs := repository.NewNotificationRepository(st, b)

	fanout := notifications.NewFanout(notifs, users)
	return &Seeder{
		users:       users,
		posts:       posts,
		products:    products,
		communities: communities,
		vibes:       vibes,
		engagement:  engagement.New(st, posts, comments, products, fanout),
		graph:       social.NewGraph(st, b, fanout),
		chats:       service.NewChatService(chats, users),
	}
}

// Run seeds the full dataset: users, a follow mesh, communities, posts
// with engagement, products, vibes, and a few conversations.
func (s *Seeder) Run(ctx context.Context, opts Options) error {
	users, err := s.seedUsers(ctx, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}
	if err := s.seedFollowMesh(ctx, users); err != nil {
		return fmt.Errorf("seeding follow graph: %w", err)
	}
	communityIDs, err := s.seedCommunities(ctx, users)
	if err != nil {
		return fmt.Errorf("seeding communities: %w", err)
	}
	if err := s.seedPosts(ctx, users, communityIDs, opts.NumPosts); err != nil {
		return fmt.Errorf("seeding posts: %w", err)
	}
	if err := s.seedProducts(ctx, users, opts.NumProducts); err != nil {
		return fmt.Errorf("seeding products: %w", err)
	}
	if err := s.seedVibes(ctx, users, opts.NumVibes); err != nil {
		return fmt.Errorf("seeding vibes: %w", err)
	}
	if err := s.seedChats(ctx, users); err != nil {
		return fmt.Errorf("seeding chats: %w", err)
	}
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context, n int) ([]models.UserSnapshot, error) {
	users := make([]models.UserSnapshot, 0, n)
	for i := 0; i < n; i++ {
		snapshot := models.UserSnapshot{
			ID:          gofakeit.UUID(),
			Username:    gofakeit.Username(),
			DisplayName: gofakeit.Name(),
			AvatarURL:   gofakeit.ImageURL(128, 128),
		}
		if err := s.users.Put(ctx, snapshot); err != nil {
			return nil, err
		}
		users = append(users, snapshot)
	}
	log.Printf("Seeded %d users", len(users))
	return users, nil
}

// seedFollowMesh gives every user a handful of follows. Self-follows are
// skipped rather than retried; the mesh does not need to be exact.
func (s *Seeder) seedFollowMesh(ctx context.Context, users []models.UserSnapshot) error {
	edges := 0
	for _, u := range users {
		follows := rand.Intn(6) + 2
		for i := 0; i < follows; i++ {
			target := users[rand.Intn(len(users))]
			if target.ID == u.ID {
				continue
			}
			if err := s.graph.Follow(ctx, u.ID, target.ID); err != nil {
				return err
			}
			edges++
		}
	}
	log.Printf("Seeded %d follow edges", edges)
	return nil
}

var communityNames = []string{
	"General", "Movies", "Music", "Gaming", "Fitness", "Technology",
	"Books", "Food", "Travel", "Programming", "Art", "Science",
	"Pets", "Finance", "Photography", "DIY",
}

func (s *Seeder) seedCommunities(ctx context.Context, users []models.UserSnapshot) ([]string, error) {
	ids := make([]string, 0, len(communityNames))
	for _, name := range communityNames {
		creator := users[rand.Intn(len(users))]
		community, err := s.communities.Create(ctx, repository.CreateCommunityInput{
			Creator:     creator,
			Name:        name,
			Description: gofakeit.Sentence(12),
			Privacy:     models.CommunityPrivacyPublic,
			Category:    gofakeit.NounAbstract(),
			Channels: []models.Channel{
				{ID: gofakeit.UUID(), Name: "general", Type: "text"},
				{ID: gofakeit.UUID(), Name: "announcements", Type: "announcement"},
			},
		})
		if err != nil {
			return nil, err
		}
		// Pull a few members in besides the creator.
		for i := 0; i < rand.Intn(8)+2; i++ {
			member := users[rand.Intn(len(users))]
			if err := s.communities.Join(ctx, community.ID, member.ID); err != nil {
				return nil, err
			}
		}
		ids = append(ids, community.ID)
	}
	log.Printf("Seeded %d communities", len(ids))
	return ids, nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []models.UserSnapshot, communityIDs []string, n int) error {
	for i := 0; i < n; i++ {
		author := users[rand.Intn(len(users))]
		in := repository.CreatePostInput{
			Author:  author,
			Content: gofakeit.Sentence(rand.Intn(20) + 5),
			Tags:    []string{gofakeit.Word(), gofakeit.Word()},
		}
		if rand.Intn(3) == 0 {
			in.CommunityID = communityIDs[rand.Intn(len(communityIDs))]
		}
		if rand.Intn(4) == 0 {
			in.Images = []string{gofakeit.ImageURL(1080, 720)}
		}
		post, err := s.posts.Create(ctx, in)
		if err != nil {
			return err
		}

		for j := 0; j < rand.Intn(10); j++ {
			liker := users[rand.Intn(len(users))]
			if _, err := s.engagement.TogglePostLike(ctx, post.ID, liker.ID); err != nil {
				return err
			}
		}
		for j := 0; j < rand.Intn(4); j++ {
			commenter := users[rand.Intn(len(users))]
			if _, err := s.engagement.AddComment(ctx, post.ID, commenter, gofakeit.Sentence(rand.Intn(10)+3)); err != nil {
				return err
			}
		}
		for j := 0; j < rand.Intn(20); j++ {
			viewer := users[rand.Intn(len(users))]
			if _, err := s.engagement.IncrementView(ctx, post.ID, viewer.ID); err != nil {
				return err
			}
		}
	}
	log.Printf("Seeded %d posts with engagement", n)
	return nil
}

func (s *Seeder) seedProducts(ctx context.Context, users []models.UserSnapshot, n int) error {
	categories := []models.ProductCategory{
		models.ProductCategoryElectronics, models.ProductCategoryFashion,
		models.ProductCategoryHome, models.ProductCategoryBooks,
	}
	conditions := []models.ProductCondition{
		models.ProductConditionNew, models.ProductConditionLikeNew,
		models.ProductConditionGood, models.ProductConditionFair,
	}
	for i := 0; i < n; i++ {
		seller := users[rand.Intn(len(users))]
		product, err := s.products.Create(ctx, repository.CreateProductInput{
			Seller:      seller,
			Title:       gofakeit.ProductName(),
			Description: gofakeit.Sentence(15),
			Price:       gofakeit.Price(5, 500),
			Category:    categories[rand.Intn(len(categories))],
			Condition:   conditions[rand.Intn(len(conditions))],
			Images:      []string{gofakeit.ImageURL(640, 480)},
			Location:    gofakeit.City(),
		})
		if err != nil {
			return err
		}
		for j := 0; j < rand.Intn(6); j++ {
			liker := users[rand.Intn(len(users))]
			if _, err := s.engagement.ToggleProductLike(ctx, product.ID, liker.ID); err != nil {
				return err
			}
		}
	}
	log.Printf("Seeded %d products", n)
	return nil
}

func (s *Seeder) seedVibes(ctx context.Context, users []models.UserSnapshot, n int) error {
	for i := 0; i < n; i++ {
		author := users[rand.Intn(len(users))]
		vibe, err := s.vibes.Create(ctx, repository.CreateVibeInput{
			Author:    author,
			MediaURL:  gofakeit.ImageURL(720, 1280),
			MediaType: models.VibeMediaImage,
		})
		if err != nil {
			return err
		}
		for j := 0; j < rand.Intn(5); j++ {
			viewer := users[rand.Intn(len(users))]
			if viewer.ID == author.ID {
				continue
			}
			if err := s.vibes.MarkSeen(ctx, vibe.ID, viewer.ID); err != nil {
				return err
			}
		}
	}
	log.Printf("Seeded %d vibes", n)
	return nil
}

func (s *Seeder) seedChats(ctx context.Context, users []models.UserSnapshot) error {
	if len(users) < 2 {
		return nil
	}
	pairs := len(users) / 2
	for i := 0; i < pairs; i++ {
		a, b := users[2*i], users[2*i+1]
		chat, err := s.chats.CreateDirectChat(ctx, a.ID, b.ID)
		if err != nil {
			return err
		}
		turns := rand.Intn(6) + 2
		for j := 0; j < turns; j++ {
			sender := a
			if j%2 == 1 {
				sender = b
			}
			_, err := s.chats.SendMessage(ctx, service.SendMessageInput{
				ChatID:   chat.ID,
				SenderID: sender.ID,
				Content:  gofakeit.Sentence(rand.Intn(8) + 2),
			})
			if err != nil {
				return err
			}
		}
	}
	log.Printf("Seeded %d direct chats", pairs)
	return nil
}
