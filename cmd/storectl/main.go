// Command storectl provides low-level store inspection utilities for
// operators: reading, listing, and deleting leaves by path.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"ripple/internal/config"
	"ripple/internal/server"
	"ripple/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/storectl get <path>      - Print one leaf's value")
		fmt.Println("  go run ./cmd/storectl ls <prefix>     - List direct children of a prefix")
		fmt.Println("  go run ./cmd/storectl del <path>      - Delete one leaf")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := server.OpenStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "get":
		requireArg(2, "get <path>")
		getLeaf(ctx, st, os.Args[2])

	case "ls":
		requireArg(2, "ls <prefix>")
		listChildren(ctx, st, os.Args[2])

	case "del":
		requireArg(2, "del <path>")
		deleteLeaf(ctx, st, os.Args[2])

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func requireArg(n int, usage string) {
	if len(os.Args) <= n {
		fmt.Printf("Usage: go run ./cmd/storectl %s\n", usage)
		os.Exit(1)
	}
}

func getLeaf(ctx context.Context, st store.Store, path string) {
	value, err := st.Read(ctx, path)
	if err == store.ErrNotFound {
		fmt.Printf("No leaf at %s\n", path)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Read failed: %v", err)
	}
	fmt.Println(string(value))
}

func listChildren(ctx context.Context, st store.Store, prefix string) {
	children, err := st.List(ctx, prefix)
	if err != nil {
		log.Fatalf("List failed: %v", err)
	}
	if len(children) == 0 {
		fmt.Printf("No children under %s\n", prefix)
		return
	}

	keys := make([]string, 0, len(children))
	for key := range children {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%s\t%d bytes\n", key, len(children[key]))
	}
}

func deleteLeaf(ctx context.Context, st store.Store, path string) {
	if err := st.Delete(ctx, path); err != nil {
		log.Fatalf("Delete failed: %v", err)
	}
	fmt.Printf("Deleted %s\n", path)
}
