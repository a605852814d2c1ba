// Package worldpop locates population raster downloads on the WorldPop hub
// summary pages.
package worldpop

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
)

// Client resolves summary page ids to GeoTIFF links.
type Client struct {
	fetcher domain.Fetcher
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a hub client. baseURL is the summary endpoint, e.g.
// https://hub.worldpop.org/geodata/summary.
func NewClient(fetcher domain.Fetcher, baseURL string, logger *slog.Logger) *Client {
	return &Client{fetcher: fetcher, baseURL: baseURL, logger: logger}
}

// PageURL returns the summary page for id.
func (c *Client) PageURL(id int) string {
	return c.baseURL + "?id=" + strconv.Itoa(id)
}

// RasterLink fetches summary page id and returns the absolute URL of its
// GeoTIFF download.
func (c *Client) RasterLink(ctx context.Context, id int) (string, error) {
	pageURL := c.PageURL(id)
	page, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	href, err := ExtractLink(page)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", id, err)
	}
	link, err := resolve(pageURL, href)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", id, err)
	}
	c.logger.Debug("raster link found", "page_id", id, "link", link)
	return link, nil
}

// PageIDs enumerates start..end inclusive, descending when start > end.
func PageIDs(start, end int) []int {
	step := 1
	if start > end {
		step = -1
	}
	ids := make([]int, 0, abs(end-start)+1)
	for id := start; ; id += step {
		ids = append(ids, id)
		if id == end {
			break
		}
	}
	return ids
}

// ExtractLink returns the first href ending in .tif inside div#files.
func ExtractLink(page []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("%w: parse summary page: %v", domain.ErrParse, err)
	}
	files := findElement(doc, func(n *html.Node) bool {
		return n.Data == "div" && getAttr(n, "id") == "files"
	})
	if files == nil {
		return "", fmt.Errorf("%w: no files section", domain.ErrEmptyResult)
	}
	link := findElement(files, func(n *html.Node) bool {
		return n.Data == "a" && strings.HasSuffix(strings.TrimSpace(getAttr(n, "href")), ".tif")
	})
	if link == nil {
		return "", fmt.Errorf("%w: no .tif link in files section", domain.ErrEmptyResult)
	}
	return strings.TrimSpace(getAttr(link, "href")), nil
}

// FileName returns the last path segment of a download link.
func FileName(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: parse link %q: %v", domain.ErrParse, link, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("%w: link %q has no file name", domain.ErrParse, link)
	}
	return name, nil
}

func resolve(pageURL, href string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: parse page url: %v", domain.ErrParse, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: parse link %q: %v", domain.ErrParse, href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// findElement walks the tree depth-first and returns the first element node
// below n matching fn.
func findElement(n *html.Node, fn func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && fn(c) {
			return c
		}
		if found := findElement(c, fn); found != nil {
			return found
		}
	}
	return nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
