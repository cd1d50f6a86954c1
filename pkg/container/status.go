// pkg/container/status.go

package container

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/shared"
	cerr "github.com/cockroachdb/errors"
	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Second

// Lister is the slice of the Docker Engine API used for status reporting.
type Lister interface {
	ContainerList(ctx context.Context, options dockercontainer.ListOptions) ([]dockercontainer.Summary, error)
}

// Status describes one container started from the generated manifest.
type Status struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Service string    `json:"service"`
	Image   string    `json:"image"`
	State   string    `json:"state"`
	Status  string    `json:"status"`
	Created time.Time `json:"created"`
}

// composeServiceLabel is set by both compose v1 and v2 on every container.
const composeServiceLabel = "com.docker.compose.service"

// NewClient connects to the Docker daemon from environment configuration
// (DOCKER_HOST and friends) with API version negotiation enabled.
func NewClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, cerr.WithHint(cerr.Wrap(err, "create docker client"),
			"check DOCKER_HOST or that the docker socket is reachable")
	}
	return cli, nil
}

// List returns every container, running or not, whose name carries the
// microns_ prefix, sorted by name.
func List(ctx context.Context, api Lister) ([]Status, error) {
	listCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	containers, err := api.ContainerList(listCtx, dockercontainer.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", shared.ContainerPrefix)),
	})
	if err != nil {
		return nil, cerr.WithHint(
			cerr.Wrap(err, "list containers"),
			"is the docker daemon running and accessible to this user?")
	}

	statuses := []Status{}
	for _, c := range containers {
		name := containerName(c.Names)
		// The engine's name filter is a substring match.
		if !strings.HasPrefix(name, shared.ContainerPrefix) {
			continue
		}
		service := c.Labels[composeServiceLabel]
		if service == "" {
			service = strings.TrimPrefix(name, shared.ContainerPrefix)
		}
		statuses = append(statuses, Status{
			ID:      shortID(c.ID),
			Name:    name,
			Service: service,
			Image:   c.Image,
			State:   string(c.State),
			Status:  c.Status,
			Created: time.Unix(c.Created, 0).UTC(),
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	otelzap.Ctx(ctx).Debug("Listed containers", zap.Int("count", len(statuses)))
	return statuses, nil
}

func containerName(names []string) string {
	for _, n := range names {
		n = strings.TrimPrefix(n, "/")
		// Linked containers show up as /other/alias.
		if !strings.Contains(n, "/") {
			return n
		}
	}
	return ""
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
