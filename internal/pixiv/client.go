package pixiv

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

const defaultBaseURL = "https://www.pixiv.net"

// Client talks to the pixiv web frontend. Metadata is read from the ajax
// endpoint, with a scrape of the artwork page's embedded preload JSON as a
// fallback for works the endpoint refuses to serve.
type Client struct {
	baseURL string
	session string
	http    *http.Client
}

func NewClient(baseURL, sessionCookie string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
			Transport: refererTransport{
				Referer:   baseURL,
				UserAgent: "Mozilla/5.0",
				Transport: http.DefaultTransport,
			},
		}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: sessionCookie,
		http:    httpClient,
	}
}

// refererTransport stamps every request with a referer and user agent.
// pixiv's image hosts refuse requests without a matching referer.
type refererTransport struct {
	Referer   string
	UserAgent string
	Transport http.RoundTripper
}

func (t refererTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Referer", t.Referer)
	req.Header.Set("User-Agent", t.UserAgent)
	return t.Transport.RoundTrip(req)
}

type ajaxEnvelope struct {
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

type illustBody struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IllustType  MediaType `json:"illustType"`
	PageCount   int       `json:"pageCount"`
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	URLs        ImageURLs `json:"urls"`
	Tags        struct {
		Tags []struct {
			Tag string `json:"tag"`
		} `json:"tags"`
	} `json:"tags"`
}

// GetArtwork fetches the metadata of a single work.
func (c *Client) GetArtwork(ctx context.Context, workID string) (*Artwork, error) {
	body, err := c.getAjax(ctx, "/ajax/illust/"+workID)
	if err == nil {
		return artworkFromBody(body)
	}
	ajaxErr := err

	body, err = c.scrapeArtwork(ctx, workID)
	if err != nil {
		return nil, errors.Wrapf(ajaxErr, "fetch artwork %s (scrape fallback also failed: %v)", workID, err)
	}
	return artworkFromBody(body)
}

func (c *Client) getAjax(ctx context.Context, path string) (illustBody, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return illustBody{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return illustBody{}, errors.Wrapf(err, "request %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return illustBody{}, errors.Errorf("request %s failed with status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var envelope ajaxEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return illustBody{}, errors.Wrapf(err, "decode response of %s", path)
	}
	if envelope.Error {
		return illustBody{}, errors.Errorf("pixiv rejected %s: %s", path, envelope.Message)
	}

	var body illustBody
	if err := json.Unmarshal(envelope.Body, &body); err != nil {
		return illustBody{}, errors.Wrapf(err, "decode body of %s", path)
	}
	return body, nil
}

// scrapeArtwork pulls the preload JSON embedded in the artwork page.
func (c *Client) scrapeArtwork(ctx context.Context, workID string) (illustBody, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/artworks/"+workID, nil)
	if err != nil {
		return illustBody{}, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return illustBody{}, errors.Wrapf(err, "request artwork page %s", workID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return illustBody{}, errors.Errorf("artwork page %s returned status %d", workID, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return illustBody{}, errors.Wrapf(err, "parse artwork page %s", workID)
	}

	raw, ok := doc.Find("meta#meta-preload-data").Attr("content")
	if !ok {
		return illustBody{}, errors.Errorf("artwork page %s has no preload data", workID)
	}

	var preload struct {
		Illust map[string]illustBody `json:"illust"`
	}
	if err := json.Unmarshal([]byte(raw), &preload); err != nil {
		return illustBody{}, errors.Wrapf(err, "decode preload data of %s", workID)
	}
	body, ok := preload.Illust[workID]
	if !ok {
		return illustBody{}, errors.Errorf("preload data of %s does not describe the work", workID)
	}
	return body, nil
}

func artworkFromBody(body illustBody) (*Artwork, error) {
	if body.ID == "" {
		return nil, errors.New("artwork metadata has no id")
	}
	tags := make([]string, 0, len(body.Tags.Tags))
	for _, t := range body.Tags.Tags {
		tags = append(tags, t.Tag)
	}
	return &Artwork{
		ID:          body.ID,
		Title:       body.Title,
		Description: body.Description,
		UserID:      body.UserID,
		UserName:    body.UserName,
		Type:        body.IllustType,
		PageCount:   body.PageCount,
		URLs:        body.URLs,
		Tags:        tags,
	}, nil
}

// AddBookmark files the work into the account's bookmarks.
func (c *Client) AddBookmark(ctx context.Context, workID string, tags []string, restrict int) error {
	payload, err := json.Marshal(map[string]any{
		"illust_id": workID,
		"restrict":  restrict,
		"comment":   "",
		"tags":      tags,
	})
	if err != nil {
		return errors.Wrap(err, "encode bookmark payload")
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/ajax/illusts/bookmarks/add", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "bookmark request for %s", workID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("bookmark %s failed with status %d: %s", workID, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var envelope ajaxEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.Wrapf(err, "decode bookmark response for %s", workID)
	}
	if envelope.Error {
		return errors.Errorf("pixiv rejected bookmark for %s: %s", workID, envelope.Message)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", path)
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: "PHPSESSID", Value: c.session})
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}
