// Package article fetches a web page and extracts its readable Japanese
// text for vocabulary extraction.
package article

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/okanehara/vocabdex/pkg/tokenize"
)

// maxBodySize caps HTML downloads so an untrusted URL cannot exhaust
// memory.
const maxBodySize = 10 * 1024 * 1024

// Article is the readable content of one fetched page.
type Article struct {
	Title string
	Text  string
}

// Fetch downloads the page at rawURL and returns its readable text with
// ruby annotations stripped. Non-200 responses and oversized bodies are
// errors.
func Fetch(ctx context.Context, rawURL string) (Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Article{}, fmt.Errorf("create request: %w", err)
	}
	// Mimic a real browser; plain Go user agents get blocked by some
	// news sites.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ja;q=0.8")
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	if resp.ContentLength > maxBodySize {
		return Article{}, fmt.Errorf("fetch %s: content length %d exceeds %d bytes", rawURL, resp.ContentLength, maxBodySize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Article{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) >= int64(maxBodySize) {
		return Article{}, fmt.Errorf("fetch %s: body exceeds %d bytes", rawURL, maxBodySize)
	}

	// Strip <rt>/<rp> before readability so furigana does not duplicate
	// readings inside the extracted text.
	body = tokenize.SanitizeRuby(body)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Article{}, fmt.Errorf("parse url: %w", err)
	}
	art, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return Article{}, fmt.Errorf("extract article: %w", err)
	}
	return Article{Title: art.Title, Text: art.TextContent}, nil
}
