package annostore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dgallion1/formulatag/internal/annotation"
	"github.com/dgallion1/formulatag/internal/vocab"
)

// Client communicates with the annotation store HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Paragraph is the response from GET /paragraph/{ref}.
type Paragraph struct {
	HTML        string         `json:"html"`
	Filename    string         `json:"filename"`
	Annotations annotation.Map `json:"-"`
}

// GetAnnotations retrieves the stored map for a document. A document that
// was never stored yields an empty map.
func (c *Client) GetAnnotations(ctx context.Context, docID string) (annotation.Map, error) {
	resp, err := c.do(ctx, http.MethodGet, "/annotations/"+url.PathEscape(docID), nil)
	if err != nil {
		return nil, fmt.Errorf("get annotations: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return annotation.Map{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("get annotations "+docID, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read annotations: %w", err)
	}
	m, err := annotation.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode annotations %s: %w", docID, err)
	}
	return m, nil
}

// SaveAnnotations replaces the stored map for a document.
func (c *Client) SaveAnnotations(ctx context.Context, docID string, m annotation.Map) error {
	body, err := m.Encode()
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPut, "/annotations/"+url.PathEscape(docID), body)
	if err != nil {
		return fmt.Errorf("put annotations: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusCreated {
		return statusError("put annotations "+docID, resp)
	}
	return nil
}

// RandomParagraph fetches a randomly chosen paragraph fragment.
func (c *Client) RandomParagraph(ctx context.Context) (*Paragraph, error) {
	return c.paragraph(ctx, "/paragraph/random")
}

// GetParagraph fetches a paragraph fragment by file name.
func (c *Client) GetParagraph(ctx context.Context, ref string) (*Paragraph, error) {
	return c.paragraph(ctx, "/paragraph/"+url.PathEscape(ref))
}

func (c *Client) paragraph(ctx context.Context, path string) (*Paragraph, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("get paragraph: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("get paragraph", resp)
	}

	var raw struct {
		HTML        string          `json:"html"`
		Filename    string          `json:"filename"`
		Annotations json.RawMessage `json:"annotations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode paragraph: %w", err)
	}
	m, err := annotation.Decode(raw.Annotations)
	if err != nil {
		return nil, fmt.Errorf("decode paragraph annotations %s: %w", raw.Filename, err)
	}
	return &Paragraph{HTML: raw.HTML, Filename: raw.Filename, Annotations: m}, nil
}

// Vocabulary fetches the server's tag vocabulary.
func (c *Client) Vocabulary(ctx context.Context) (*vocab.Vocabulary, error) {
	resp, err := c.do(ctx, http.MethodGet, "/vocabulary", nil)
	if err != nil {
		return nil, fmt.Errorf("get vocabulary: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("get vocabulary", resp)
	}
	var v vocab.Vocabulary
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("server vocabulary: %w", err)
	}
	return &v, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &RetryableError{Err: err}
	}
	return resp, nil
}

func statusError(op string, resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	err := fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(respBody))
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return &RetryableError{StatusCode: resp.StatusCode, Err: err}
	}
	return err
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
