// Package firewall updates cloud firewall rules through the compute API.
package firewall

import (
	"context"
	"errors"
)

// ErrRuleNotFound is returned when the named rule does not exist in the project.
var ErrRuleNotFound = errors.New("firewall rule not found")

// Rule is the subset of a firewall rule that is logged before an update.
type Rule struct {
	Name         string
	Network      string
	Direction    string
	Priority     int64
	Disabled     bool
	SourceRanges int
}

// Operation identifies the long-running operation started by an update.
type Operation struct {
	Name       string
	Status     string
	TargetLink string
}

// RuleClient reads and patches a single firewall rule.
type RuleClient interface {
	GetRule(ctx context.Context, project, name string) (*Rule, error)
	// SetSourceRanges replaces the rule's source ranges. The update is sent
	// without a fingerprint, so the last writer wins.
	SetSourceRanges(ctx context.Context, project, name string, ranges []string) (*Operation, error)
}
