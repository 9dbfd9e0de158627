// Command main runs the data seeder for Ripple.
package main

import (
	"context"
	"flag"
	"log"

	"ripple/internal/config"
	"ripple/internal/seed"
	"ripple/internal/server"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	numProducts := flag.Int("products", 40, "Number of marketplace listings to create")
	numVibes := flag.Int("vibes", 30, "Number of vibes to create")
	flag.Parse()

	log.Println("Data Seeder")
	log.Println("===========")
	log.Printf("Target: %d users, %d posts, %d products, %d vibes\n",
		*numUsers, *numPosts, *numProducts, *numVibes)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.StoreBackend == "memory" {
		log.Fatal("STORE_BACKEND=memory holds data only in-process; point the seeder at redis or gorm")
	}

	st, err := server.OpenStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	s := seed.NewSeeder(st)
	if err := s.Run(context.Background(), seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		NumProducts: *numProducts,
		NumVibes:    *numVibes,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done! The store is now populated with test data.")
}
