// Command debugsearch prints the Serper results for a question and whether
// each one survives site filtering.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hyperifyio/answersynth/internal/search"
	sel "github.com/hyperifyio/answersynth/internal/select"
)

func main() {
	site := os.Getenv("ANSWERSYNTH_SITE")
	if site == "" {
		site = "quora.com"
	}
	q := "What is love?"
	if len(os.Args) > 1 {
		q = strings.Join(os.Args[1:], " ")
	}
	prov := &search.Serper{
		Endpoint:   os.Getenv("ANSWERSYNTH_SERPER_URL"),
		APIKey:     os.Getenv("SERPER_API_KEY"),
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	query := search.SiteQuery(q, site)
	res, err := prov.Search(ctx, query, sel.DefaultMaxTotal)
	fmt.Println("query:", query)
	if err != nil {
		fmt.Println("err:", err)
		os.Exit(1)
	}
	kept := map[string]bool{}
	for _, r := range sel.Select(res, sel.Options{Site: site}) {
		kept[r.URL] = true
	}
	for i, r := range res {
		mark := "-"
		if kept[r.URL] {
			mark = "+"
		}
		fmt.Printf("%s %d. %s - %s\n     %s\n", mark, i+1, r.Title, r.URL, r.Snippet)
	}
	fmt.Printf("%d results, %d kept for %s\n", len(res), len(kept), site)
}
