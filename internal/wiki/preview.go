package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"wikiexplorer/internal/model"
)

const (
	summaryChars      = 600
	maxThumbnailBytes = 2 << 20
)

// Summary returns the plain-text introduction of an article.
func (c *Client) Summary(ctx context.Context, pageID int64) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("prop", "extracts")
	params.Set("exintro", "1")
	params.Set("exchars", strconv.Itoa(summaryChars))
	params.Set("pageids", strconv.FormatInt(pageID, 10))
	reqURL := c.baseURL + apiPath + "?" + params.Encode()

	resp, err := c.get(ctx, reqURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		Query struct {
			Pages []struct {
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.log.Warn("wiki summary decode failed", "err", err)
		return "", model.ErrDecoding
	}
	if len(result.Query.Pages) == 0 || result.Query.Pages[0].Extract == "" {
		return "", model.ErrNoResults
	}

	return htmlToText(result.Query.Pages[0].Extract)
}

// htmlToText flattens an extract into paragraphs of plain text.
func htmlToText(extract string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(extract))
	if err != nil {
		return "", fmt.Errorf("failed to parse extract: %w", err)
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.Join(strings.Fields(p.Text()), " ")
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		text := strings.Join(strings.Fields(doc.Text()), " ")
		if text == "" {
			return "", model.ErrNoResults
		}
		return text, nil
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

// Thumbnail downloads and decodes an article thumbnail.
func (c *Client) Thumbnail(ctx context.Context, thumbnailURL string) (image.Image, error) {
	if thumbnailURL == "" {
		return nil, model.ErrInvalidResponse
	}

	resp, err := c.get(ctx, thumbnailURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxThumbnailBytes))
	if err != nil {
		c.log.Warn("thumbnail decode failed", "url", thumbnailURL, "err", err)
		return nil, model.ErrDecoding
	}
	return img, nil
}

// get performs a GET and maps transport failures and non-200 statuses to
// classified errors. The caller closes the body.
func (c *Client) get(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, model.ErrInvalidResponse
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		classified := model.Classify(err)
		c.log.Warn("wiki request failed", "err", err, "kind", classified.Kind)
		return nil, classified
	}

	switch {
	case resp.StatusCode >= 500:
		resp.Body.Close()
		return nil, model.ServerError(resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, model.ErrInvalidResponse
	}
	return resp, nil
}
