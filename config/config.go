// Package config decodes the resolver's tunable policy from TOML, the
// syntax cupt's own configuration files use (full config-file syntax —
// sources lists, APT-style option tables — is out of scope; this
// package covers only the resolver policy knobs).
package config

import (
	"io"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/jamessan/cupt/nativeresolver"
)

// rawConfig mirrors the on-disk shape; ResolverPolicy is assembled from
// it with defaults filled in for anything left unset.
type rawConfig struct {
	Resolver rawResolverPolicy `toml:"resolver"`
}

type rawResolverPolicy struct {
	SquashFactor              int     `toml:"squash-factor"`
	FrontierCap               int     `toml:"frontier-cap"`
	SynchronizeSourceVersions *bool   `toml:"synchronize-source-versions"`
	InstalledBonus            float64 `toml:"installed-bonus"`
	TrustedBonus               float64 `toml:"trusted-bonus"`
	RemovalPenalty             float64 `toml:"removal-penalty"`
	PriorityCrossingPenalty    float64 `toml:"priority-crossing-penalty"`
	SoftRelationBreakPenalty   float64 `toml:"soft-relation-break-penalty"`
}

// Load reads a resolver policy from r, falling back to
// nativeresolver.DefaultPolicy for any table or key the document
// omits.
func Load(r io.Reader) (nativeresolver.Policy, error) {
	policy := nativeresolver.DefaultPolicy

	buf, err := io.ReadAll(r)
	if err != nil {
		return policy, errors.Wrap(err, "config: unable to read policy document")
	}
	if len(buf) == 0 {
		return policy, nil
	}

	var raw rawConfig
	if err := toml.Unmarshal(buf, &raw); err != nil {
		return policy, errors.Wrap(err, "config: unable to parse policy document as TOML")
	}

	if raw.Resolver.SquashFactor > 0 {
		policy.SquashFactor = raw.Resolver.SquashFactor
	}
	if raw.Resolver.FrontierCap > 0 {
		policy.FrontierCap = raw.Resolver.FrontierCap
	}
	if raw.Resolver.SynchronizeSourceVersions != nil {
		policy.SynchronizeSourceVersions = *raw.Resolver.SynchronizeSourceVersions
	}
	if raw.Resolver.InstalledBonus != 0 {
		policy.Weights.InstalledBonus = raw.Resolver.InstalledBonus
	}
	if raw.Resolver.TrustedBonus != 0 {
		policy.Weights.TrustedBonus = raw.Resolver.TrustedBonus
	}
	if raw.Resolver.RemovalPenalty != 0 {
		policy.Weights.RemovalPenalty = raw.Resolver.RemovalPenalty
	}
	if raw.Resolver.PriorityCrossingPenalty != 0 {
		policy.Weights.PriorityCrossingPenalty = raw.Resolver.PriorityCrossingPenalty
	}
	if raw.Resolver.SoftRelationBreakPenalty != 0 {
		policy.Weights.SoftRelationBreakPenalty = raw.Resolver.SoftRelationBreakPenalty
	}

	return policy, nil
}
