package favorites

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"favarchive/pkg/config"
	"favarchive/pkg/errors"
	"favarchive/pkg/logger"

	"github.com/go-resty/resty/v2"
)

// Client talks to the favorites API and the media host behind it. It never
// retries; pacing is the caller's job.
type Client struct {
	http    *resty.Client
	baseURL string
	logger  logger.Logger
}

// NewClient creates a client identifying itself with cfg.UserAgent
func NewClient(cfg *config.APIConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	httpClient := resty.New().
		SetHeader("User-Agent", cfg.UserAgent).
		SetRetryCount(0)
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}

	return &Client{
		http:    httpClient,
		baseURL: cfg.BaseURL,
		logger:  log,
	}
}

// SetTransport replaces the underlying round tripper
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.SetTransport(rt)
}

// FetchFavorites fetches one page of a user's favorites. Network failures,
// non-success statuses and undecodable bodies all come back as *errors.Error.
func (c *Client) FetchFavorites(userID, page int) (*Page, error) {
	url := FavoritesURL(c.baseURL, userID, page)

	resp, err := c.http.R().
		SetHeader("Accept", "application/json").
		Get(url)
	if err != nil {
		c.logger.WithError(err).ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url": url,
		})
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "favorites request failed")
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode(),
		"duration": resp.Time(),
	})

	if err := c.checkResponseStatus(url, resp.StatusCode()); err != nil {
		return nil, err
	}

	var result Page
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		bodyPreview := string(resp.Body())
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return nil, errors.Wrap(errors.ErrorTypeParsing, err, "failed to parse favorites page")
	}

	return &result, nil
}

// FetchMedia opens the media at url. The caller must close the returned body.
func (c *Client) FetchMedia(url string) (io.ReadCloser, error) {
	resp, err := c.http.R().
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "media request failed")
	}

	body := resp.RawBody()
	if err := c.checkResponseStatus(url, resp.StatusCode()); err != nil {
		if body != nil {
			body.Close()
		}
		return nil, err
	}

	c.logger.DebugWithFields("media response received", map[string]interface{}{
		"url":            url,
		"status":         resp.StatusCode(),
		"content_length": resp.RawResponse.ContentLength,
	})

	return body, nil
}

// checkResponseStatus maps non-2xx responses to status errors
func (c *Client) checkResponseStatus(url string, status int) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var message string
	switch {
	case status == http.StatusNotFound:
		message = "resource not found"
	case status == http.StatusForbidden:
		message = "access denied"
	case status == http.StatusTooManyRequests:
		message = "rate limited by server"
	case status >= 500:
		message = "server error"
	default:
		message = fmt.Sprintf("unexpected status %d", status)
	}

	c.logger.WarnWithFields(message, map[string]interface{}{
		"status": status,
		"url":    url,
	})
	return errors.Status(status, message)
}
