package googledocs

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"diligence/pkg/errors"
)

const defaultBaseURL = "https://docs.google.com"

var (
	docIDPattern  = regexp.MustCompile(`docs\.google\.com/document/d/([a-zA-Z0-9_-]+)`)
	htmlTag       = regexp.MustCompile(`<[^>]+>`)
	multiNewlines = regexp.MustCompile(`\n{2,}`)
)

// Client fetches document contents via the public export endpoints.
// Documents must be shared as "anyone with the link".
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new Google Docs client
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
	}
}

// ExtractDocumentID pulls the document ID out of common Google Docs URL forms.
func ExtractDocumentID(url string) (string, error) {
	if m := docIDPattern.FindStringSubmatch(url); m != nil {
		return m[1], nil
	}
	return "", errors.Wrapf(errors.ErrInvalidInput, "could not extract document ID from %q", url)
}

// FetchDocument downloads a document as plain text. The text export is tried
// first, then the HTML export with a light tag strip.
func (c *Client) FetchDocument(ctx context.Context, url string) (string, error) {
	docID, err := ExtractDocumentID(url)
	if err != nil {
		return "", err
	}

	exportURLs := []string{
		c.baseURL + "/document/d/" + docID + "/export?format=txt",
		c.baseURL + "/document/d/" + docID + "/export?format=html",
	}

	var lastErr error
	for _, exportURL := range exportURLs {
		text, err := c.fetch(ctx, exportURL)
		if err != nil {
			lastErr = err
			continue
		}

		if strings.Contains(strings.ToLower(text), "<html") {
			text = htmlTag.ReplaceAllString(text, "\n")
			text = multiNewlines.ReplaceAllString(text, "\n\n")
		}
		return strings.TrimSpace(text), nil
	}

	return "", errors.Wrapf(errors.ErrFetchFailed,
		"failed to fetch google doc %s, ensure it is shared as 'anyone with the link': %v", docID, lastErr)
}

func (c *Client) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", errors.Wrap(err, "create export request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "send export request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(errors.ErrExternal, "export returned HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read export response")
	}

	return string(body), nil
}
