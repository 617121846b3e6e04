// Package updater applies a blocklist feed to a firewall rule.
package updater

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"firewall-updater/internal/blocklist"
	"firewall-updater/internal/config"
	"firewall-updater/internal/firewall"
)

// ErrEmptyBlocklist is returned when the feed yields no entries. Patching an
// ingress rule with no source ranges would match every address.
var ErrEmptyBlocklist = errors.New("blocklist feed returned no entries")

type Outcome struct {
	Project   string
	Rule      string
	Ranges    int
	Previous  int
	Operation firewall.Operation
	Duration  time.Duration
}

// Message is the status text returned to the trigger.
func (o *Outcome) Message() string {
	return fmt.Sprintf("Successfully updated firewall rule '%s' with %d IPs.", o.Rule, o.Ranges)
}

type Updater struct {
	feedURL string
	project string
	rule    string

	rules   firewall.RuleClient
	client  *http.Client
	timeout time.Duration
	now     func() time.Time

	runs singleflight.Group
}

type Option func(*Updater)

// WithHTTPClient sets the client used to download the feed.
func WithHTTPClient(client *http.Client) Option {
	return func(u *Updater) {
		if client != nil {
			u.client = client
		}
	}
}

func New(cfg config.Config, rules firewall.RuleClient, opts ...Option) *Updater {
	u := &Updater{
		feedURL: cfg.BlocklistURL,
		project: cfg.ProjectID,
		rule:    cfg.FirewallRule,
		rules:   rules,
		client:  &http.Client{Timeout: cfg.FetchTimeout},
		timeout: cfg.RequestTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run performs one fetch and update. Calls made while a run is in flight
// wait for it and share its result. The shared run is detached from any one
// caller's cancellation and bounded by the request timeout; a caller whose
// ctx ends stops waiting without aborting the run for the others.
func (u *Updater) Run(ctx context.Context) (*Outcome, error) {
	ch := u.runs.DoChan("run", func() (interface{}, error) {
		runCtx := context.WithoutCancel(ctx)
		if u.timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, u.timeout)
			defer cancel()
		}
		return u.run(runCtx)
	})

	select {
	case <-ctx.Done():
		log.Warn("Stopped waiting for firewall update", "rule", u.rule, "error", ctx.Err())
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			log.Debug("Joined in-flight firewall update", "rule", u.rule)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		outcome, _ := res.Val.(*Outcome)
		return outcome, nil
	}
}

func (u *Updater) run(ctx context.Context) (*Outcome, error) {
	started := u.now()

	log.Info("Fetching blocklist", "url", u.feedURL)
	ranges, err := blocklist.Fetch(ctx, u.client, u.feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch blocklist: %w", err)
	}
	if len(ranges) == 0 {
		return nil, ErrEmptyBlocklist
	}
	log.Info("Blocklist fetched", "entries", len(ranges))

	log.Info("Verifying firewall rule", "project", u.project, "rule", u.rule)
	rule, err := u.rules.GetRule(ctx, u.project, u.rule)
	if err != nil {
		return nil, fmt.Errorf("get firewall rule %q: %w", u.rule, err)
	}
	log.Info("Firewall rule found",
		"rule", rule.Name,
		"direction", rule.Direction,
		"priority", rule.Priority,
		"current_ranges", rule.SourceRanges,
	)
	if rule.Disabled {
		log.Warn("Firewall rule is disabled; updating anyway", "rule", rule.Name)
	}

	log.Info("Updating firewall rule", "rule", u.rule, "entries", len(ranges))
	op, err := u.rules.SetSourceRanges(ctx, u.project, u.rule, ranges)
	if err != nil {
		return nil, fmt.Errorf("patch firewall rule %q: %w", u.rule, err)
	}
	log.Info("Firewall update operation started",
		"operation", op.Name,
		"status", op.Status,
		"target", op.TargetLink,
	)

	return &Outcome{
		Project:   u.project,
		Rule:      u.rule,
		Ranges:    len(ranges),
		Previous:  rule.SourceRanges,
		Operation: *op,
		Duration:  u.now().Sub(started),
	}, nil
}
