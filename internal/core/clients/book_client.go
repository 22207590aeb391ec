package clients

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/core/domain"
	"openshelf/internal/pkg/httpclient"
	"openshelf/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// BookClient resolves books and adjusts availability on a remote inventory
// service. It satisfies the loan coordinator's BookInventory port for the
// split deployment.
type BookClient struct {
	baseURL string
	http    *httpclient.Client
	log     *logrus.Entry
}

// NewBookClient creates a client for the given inventory base URL
func NewBookClient(baseURL string, config httpclient.Config, log *logger.Logger) *BookClient {
	return &BookClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.New(config),
		log:     log.Upstream("book-service", baseURL),
	}
}

// GetBook fetches a book by id
func (c *BookClient) GetBook(ctx context.Context, id string) (*models.Book, error) {
	url := fmt.Sprintf("%s/api/v1/books/%s", c.baseURL, id)

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		c.log.WithError(err).Warn("book lookup failed")
		return nil, fmt.Errorf("%w: book service", domain.ErrUpstreamUnavailable)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var book models.Book
		if err := resp.Decode(&book); err != nil {
			return nil, fmt.Errorf("%w: book service returned malformed body", domain.ErrUpstreamUnavailable)
		}
		return &book, nil
	case http.StatusNotFound:
		return nil, domain.ErrBookNotFound
	default:
		c.log.WithField("status", resp.StatusCode).Warn("unexpected book service response")
		return nil, fmt.Errorf("%w: book service", domain.ErrUpstreamUnavailable)
	}
}

// AdjustAvailability applies a signed delta to the remote availability
// counter. The inventory service rejects adjustments that would leave the
// counter outside [0, copies]; those rejections surface as the matching
// domain errors, not as transport failures.
func (c *BookClient) AdjustAvailability(ctx context.Context, id string, delta int) (*models.Book, error) {
	url := fmt.Sprintf("%s/api/v1/books/%s/availability", c.baseURL, id)

	resp, err := c.http.Patch(ctx, url, map[string]int{"delta": delta})
	if err != nil {
		c.log.WithError(err).Warn("availability adjustment failed")
		return nil, fmt.Errorf("%w: book service", domain.ErrUpstreamUnavailable)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var book models.Book
		if err := resp.Decode(&book); err != nil {
			return nil, fmt.Errorf("%w: book service returned malformed body", domain.ErrUpstreamUnavailable)
		}
		return &book, nil
	case http.StatusNotFound:
		return nil, domain.ErrBookNotFound
	case http.StatusBadRequest:
		if delta < 0 {
			return nil, domain.ErrNoCopiesAvailable
		}
		return nil, domain.ErrCapacityViolation
	default:
		c.log.WithField("status", resp.StatusCode).Warn("unexpected book service response")
		return nil, fmt.Errorf("%w: book service", domain.ErrUpstreamUnavailable)
	}
}
