package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hyperifyio/goreadable/internal/extract"
	"github.com/hyperifyio/goreadable/internal/fetch"
)

func main() {
	target := "https://example.com/"
	if len(os.Args) > 1 {
		target = os.Args[1]
	}

	var src extract.Source
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		client := &fetch.Client{HTTPClient: &http.Client{Timeout: 20 * time.Second}, UserAgent: "debugextract/1.0", MaxAttempts: 1}
		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		page, err := client.Get(ctx, target)
		if err != nil {
			fmt.Println("fetch err:", err)
			os.Exit(1)
		}
		src = extract.Source{Body: page.Body, ContentType: page.ContentType, URL: page.FinalURL}
	} else {
		b, err := os.ReadFile(target)
		if err != nil {
			fmt.Println("read err:", err)
			os.Exit(1)
		}
		src.Body = b
		if base := os.Getenv("BASE_URL"); base != "" {
			src.URL, _ = url.Parse(base)
		}
	}

	ex := extract.ReadabilityExtractor{Fallback: extract.HeuristicExtractor{}, DetectLanguage: true}
	doc, err := ex.Extract(src)
	fmt.Println("err:", err)
	fmt.Printf("extractor: %s\ntitle: %s\nbyline: %s\nsite: %s\nlang: %s dir: %s\npublished: %s\nlength: %d\nexcerpt: %s\n",
		doc.Extractor, doc.Title, doc.Byline, doc.SiteName, doc.Lang, doc.Dir, doc.PublishedRaw, doc.Length, doc.Excerpt)
	for i, l := range doc.Links {
		if i == 10 {
			fmt.Printf("... %d more links\n", len(doc.Links)-10)
			break
		}
		fmt.Printf("%d. %s - %s\n", i+1, l.Text, l.URL)
	}
}
