// Package modrinth looks up project and release metadata from the Modrinth API.
package modrinth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	modrinthApi "codeberg.org/jmansfield/go-modrinth/modrinth"
	"github.com/packwiz/mrpack-utils/core"
)

// DefaultUserAgent identifies this tool to the Modrinth API, as required by their API terms
const DefaultUserAgent = "packwiz/mrpack-utils"

// ErrNoVersions is returned for projects that exist but have no releases
var ErrNoVersions = errors.New("no versions found")

// Client implements core.Provider on top of the Modrinth v2 API
type Client struct {
	api *modrinthApi.Client
}

// NewClient creates a Modrinth client; httpClient carries the timeout for every request
func NewClient(httpClient *http.Client, userAgent string) *Client {
	api := modrinthApi.NewClient(httpClient)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	api.UserAgent = userAgent
	return &Client{api: api}
}

// Project is the subset of Modrinth project data shown in reports
type Project struct {
	ID    string
	Slug  string
	Title string
	// ClientSide and ServerSide are the project's default env, used when the index doesn't set one
	ClientSide core.Requirement
	ServerSide core.Requirement
}

// Link returns the modrinth.com page of the project
func (p Project) Link() string {
	slug := p.Slug
	if slug == "" {
		slug = p.ID
	}
	return "https://modrinth.com/mod/" + slug
}

// Releases returns every version of a project known to Modrinth
func (c *Client) Releases(ctx context.Context, projectID string) ([]core.Release, error) {
	versions, err := await(ctx, func() ([]*modrinthApi.Version, error) {
		return c.api.Versions.ListVersions(projectID, modrinthApi.ListVersionsOptions{})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch versions of %s: %w", projectID, err)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%s: %w", projectID, ErrNoVersions)
	}

	releases := make([]core.Release, 0, len(versions))
	for _, v := range versions {
		if v == nil || v.ID == nil {
			continue
		}
		releases = append(releases, toRelease(v))
	}
	return releases, nil
}

// Projects looks up several projects at once, keyed by project ID
func (c *Client) Projects(ctx context.Context, ids []string) (map[string]Project, error) {
	out := make(map[string]Project, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	projects, err := await(ctx, func() ([]*modrinthApi.Project, error) {
		return c.api.Projects.GetMultiple(ids)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	for _, p := range projects {
		if p == nil || p.ID == nil {
			continue
		}
		out[*p.ID] = Project{
			ID:         *p.ID,
			Slug:       deref(p.Slug),
			Title:      deref(p.Title),
			ClientSide: core.Requirement(deref(p.ClientSide)),
			ServerSide: core.Requirement(deref(p.ServerSide)),
		}
	}
	return out, nil
}

// Versions looks up several versions at once, keyed by version ID
func (c *Client) Versions(ctx context.Context, ids []string) (map[string]core.Release, error) {
	out := make(map[string]core.Release, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	versions, err := await(ctx, func() ([]*modrinthApi.Version, error) {
		return c.api.Versions.GetMultiple(ids)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch versions: %w", err)
	}
	for _, v := range versions {
		if v == nil || v.ID == nil {
			continue
		}
		out[*v.ID] = toRelease(v)
	}
	return out, nil
}

func toRelease(v *modrinthApi.Version) core.Release {
	return core.Release{
		VersionID:     *v.ID,
		VersionNumber: deref(v.VersionNumber),
		Name:          deref(v.Name),
		GameVersions:  v.GameVersions,
		Loaders:       v.Loaders,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type callResult[T any] struct {
	value T
	err   error
}

// await runs a blocking API call, returning early if ctx is done.
// The API client has no context support, so an abandoned call finishes in the background
// and is bounded by the http.Client timeout.
func await[T any](ctx context.Context, call func() (T, error)) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	done := make(chan callResult[T], 1)
	go func() {
		v, err := call()
		done <- callResult[T]{v, err}
	}()
	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
