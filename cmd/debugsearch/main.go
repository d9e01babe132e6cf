// Command debugsearch runs one SerpAPI query from the command line and
// prints the mapped results. Handy when tuning research queries.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mayedalfalasi/bizdoc-min/internal/search"
)

func main() {
	key := os.Getenv("SERPAPI_KEY")
	if key == "" {
		fmt.Fprintln(os.Stderr, "SERPAPI_KEY is not set")
		os.Exit(1)
	}
	q := "Acme Corp quarterly results"
	if len(os.Args) > 1 {
		q = os.Args[1]
	}
	prov := &search.SerpAPI{APIKey: key, HTTPClient: &http.Client{Timeout: 20 * time.Second}}
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	res, err := prov.Search(ctx, q, 5)
	if err != nil {
		fmt.Fprintln(os.Stderr, "search:", err)
		os.Exit(1)
	}
	for i, r := range res {
		fmt.Printf("%d. %s — %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Println("   ", r.Snippet)
		}
	}
}
