package searchcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	apisearch "github.com/papercomputeco/hues/api/search"
)

// SearchColorAPI calls GET /v1/collections/:name/search on a hues API server.
func SearchColorAPI(ctx context.Context, apiTarget, collection, color string, topK int) (*apisearch.Output, error) {
	searchURL, err := collectionURL(apiTarget, collection, "search")
	if err != nil {
		return nil, err
	}
	q := searchURL.Query()
	q.Set("color", color)
	q.Set("top_k", formatTopK(topK))
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	return doSearch(req, apiTarget)
}

// SearchImageAPI uploads the image at path to POST
// /v1/collections/:name/search on a hues API server.
func SearchImageAPI(ctx context.Context, apiTarget, collection, path string, topK int) (*apisearch.Output, error) {
	searchURL, err := collectionURL(apiTarget, collection, "search")
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query image: %w", err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := w.WriteField("top_k", formatTopK(topK)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL.String(), &body)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return doSearch(req, apiTarget)
}

func collectionURL(apiTarget, collection, action string) (*url.URL, error) {
	u, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	return u.JoinPath("v1", "collections", collection, action), nil
}

func formatTopK(topK int) string {
	if topK == apisearch.All {
		return "all"
	}
	return strconv.Itoa(topK)
}

func doSearch(req *http.Request, apiTarget string) (*apisearch.Output, error) {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to hues API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output apisearch.Output
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return &output, nil
}
