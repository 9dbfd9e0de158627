// Package testutil provides fake entity builders for tests.
package testutil

import (
	"time"

	"ripple/internal/models"
	"ripple/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// FakeUser builds a user snapshot with a fresh id.
func FakeUser() models.UserSnapshot {
	return models.UserSnapshot{
		ID:          uuid.New().String(),
		Username:    gofakeit.Username(),
		DisplayName: gofakeit.Name(),
		AvatarURL:   gofakeit.ImageURL(128, 128),
	}
}

// FakePostInput builds a post creation input authored by author.
func FakePostInput(author models.UserSnapshot) repository.CreatePostInput {
	return repository.CreatePostInput{
		Author:  author,
		Content: gofakeit.Sentence(12),
		Tags:    []string{gofakeit.Word(), gofakeit.Word()},
	}
}

// FakeProductInput builds a valid marketplace listing input.
func FakeProductInput(seller models.UserSnapshot) repository.CreateProductInput {
	return repository.CreateProductInput{
		Seller:      seller,
		Title:       gofakeit.ProductName(),
		Description: gofakeit.Sentence(10),
		Price:       gofakeit.Price(5, 500),
		Category:    models.ProductCategoryElectronics,
		Condition:   models.ProductConditionGood,
		Location:    gofakeit.City(),
	}
}

// FakeVibeInput builds an image vibe input authored by author.
func FakeVibeInput(author models.UserSnapshot) repository.CreateVibeInput {
	return repository.CreateVibeInput{
		Author:    author,
		MediaURL:  gofakeit.ImageURL(720, 1280),
		MediaType: models.VibeMediaImage,
	}
}

// FakeCommunityInput builds a community creation input.
func FakeCommunityInput(creator models.UserSnapshot) repository.CreateCommunityInput {
	return repository.CreateCommunityInput{
		Creator:     creator,
		Name:        gofakeit.Company(),
		Description: gofakeit.Sentence(8),
		Privacy:     models.CommunityPrivacyPublic,
		Category:    gofakeit.Word(),
	}
}
