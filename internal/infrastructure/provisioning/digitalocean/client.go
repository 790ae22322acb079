// Package digitalocean implements server provisioning, capacity checks and
// DNS records on DigitalOcean through godo.
package digitalocean

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/digitalocean/godo"
	"golang.org/x/oauth2"
)

// ProviderName is the registry key of this provider.
const ProviderName = "digitalocean"

// NewClient returns a godo client authenticated with a personal access token.
func NewClient(ctx context.Context, token string) (*godo.Client, error) {
	if token == "" {
		return nil, fmt.Errorf("digitalocean token is required")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return godo.NewClient(oauth2.NewClient(ctx, ts)), nil
}

func parseDropletID(reference string) (int, error) {
	dropletID, err := strconv.Atoi(reference)
	if err != nil || dropletID <= 0 {
		return 0, fmt.Errorf("invalid droplet reference %q", reference)
	}
	return dropletID, nil
}

func isNotFound(err error) bool {
	var errResp *godo.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode == http.StatusNotFound
	}
	return false
}

func isLastPage(resp *godo.Response) bool {
	return resp == nil || resp.Links == nil || resp.Links.IsLastPage()
}
