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

// UserClient resolves users from a remote directory service. It satisfies
// the loan coordinator's UserDirectory port for the split deployment.
type UserClient struct {
	baseURL string
	http    *httpclient.Client
	log     *logrus.Entry
}

// NewUserClient creates a client for the given directory base URL
func NewUserClient(baseURL string, config httpclient.Config, log *logger.Logger) *UserClient {
	return &UserClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.New(config),
		log:     log.Upstream("user-service", baseURL),
	}
}

// GetUser fetches a user by id. A 404 maps to the domain not-found error;
// exhausted retries map to upstream-unavailable.
func (c *UserClient) GetUser(ctx context.Context, id string) (*models.User, error) {
	url := fmt.Sprintf("%s/api/v1/users/%s", c.baseURL, id)

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		c.log.WithError(err).Warn("user lookup failed")
		return nil, fmt.Errorf("%w: user service", domain.ErrUpstreamUnavailable)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var user models.User
		if err := resp.Decode(&user); err != nil {
			return nil, fmt.Errorf("%w: user service returned malformed body", domain.ErrUpstreamUnavailable)
		}
		return &user, nil
	case http.StatusNotFound:
		return nil, domain.ErrUserNotFound
	default:
		c.log.WithField("status", resp.StatusCode).Warn("unexpected user service response")
		return nil, fmt.Errorf("%w: user service", domain.ErrUpstreamUnavailable)
	}
}
