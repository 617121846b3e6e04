package firewall

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	compute "google.golang.org/api/compute/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ComputeClient implements RuleClient on the Compute Engine v1 REST API.
type ComputeClient struct {
	firewalls *compute.FirewallsService
}

// NewComputeClient builds a client. Without options it authenticates with
// Application Default Credentials.
func NewComputeClient(ctx context.Context, opts ...option.ClientOption) (*ComputeClient, error) {
	svc, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("firewall: create compute service: %w", err)
	}
	return &ComputeClient{firewalls: svc.Firewalls}, nil
}

// ClientOptions returns the options for an optional endpoint override and user
// agent. Plain http endpoints are treated as local emulators and skip credentials.
func ClientOptions(endpoint, userAgent string) []option.ClientOption {
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
		if strings.HasPrefix(endpoint, "http://") {
			opts = append(opts, option.WithoutAuthentication())
		}
	}
	if userAgent != "" {
		opts = append(opts, option.WithUserAgent(userAgent))
	}
	return opts
}

func (c *ComputeClient) GetRule(ctx context.Context, project, name string) (*Rule, error) {
	fw, err := c.firewalls.Get(project, name).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %w", ErrRuleNotFound, err)
		}
		return nil, err
	}

	return &Rule{
		Name:         fw.Name,
		Network:      fw.Network,
		Direction:    fw.Direction,
		Priority:     fw.Priority,
		Disabled:     fw.Disabled,
		SourceRanges: len(fw.SourceRanges),
	}, nil
}

func (c *ComputeClient) SetSourceRanges(ctx context.Context, project, name string, ranges []string) (*Operation, error) {
	body := &compute.Firewall{
		SourceRanges:    ranges,
		ForceSendFields: []string{"SourceRanges"},
	}

	op, err := c.firewalls.Patch(project, name, body).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %w", ErrRuleNotFound, err)
		}
		return nil, err
	}

	return &Operation{
		Name:       op.Name,
		Status:     op.Status,
		TargetLink: op.TargetLink,
	}, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
