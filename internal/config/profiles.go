/*
Copyright 2025 The optiserve Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/optiserve/optiserve/pkg/solver"
)

// ProfileDefaultsKey is the profile entry holding defaults merged into
// every named profile.
const ProfileDefaultsKey = "default"

// SolverProfile is one named glpsol tuning profile from the config file.
type SolverProfile struct {
	// MIPGap is the relative MIP gap tolerance (0.0-1.0). Zero means
	// prove optimality.
	MIPGap float64 `yaml:"mipGap,omitempty"`

	// NoPresolve disables the LP presolver.
	NoPresolve bool `yaml:"noPresolve,omitempty"`

	// ExtraArgs are appended verbatim to the glpsol command line.
	ExtraArgs []string `yaml:"extraArgs,omitempty"`
}

// SolverProfileData holds the parsed profiles, keyed by profile name.
type SolverProfileData map[string]SolverProfile

// Validate checks for invalid profile values.
func (p *SolverProfile) Validate() error {
	if p.MIPGap < 0 || p.MIPGap >= 1 {
		return fmt.Errorf("mipGap must be in [0, 1), got %g", p.MIPGap)
	}
	return nil
}

// SkippedProfile records a profile entry dropped during parsing, for
// surfacing in startup logs.
type SkippedProfile struct {
	Name   string
	Reason string
}

// ParseSolverProfiles parses the profiles section of the config file.
// Each entry is a YAML document; invalid entries are skipped and
// reported so that one bad profile does not take the service down. The
// "default" entry supplies values merged into every named profile.
func ParseSolverProfiles(data map[string]string) (SolverProfileData, []SkippedProfile) {
	out := make(SolverProfileData)
	var skipped []SkippedProfile
	if data == nil {
		return out, nil
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var profile SolverProfile
		if err := yaml.Unmarshal([]byte(data[key]), &profile); err != nil {
			skipped = append(skipped, SkippedProfile{Name: key, Reason: err.Error()})
			continue
		}
		if err := profile.Validate(); err != nil {
			skipped = append(skipped, SkippedProfile{Name: key, Reason: err.Error()})
			continue
		}
		out[key] = profile
	}

	return out, skipped
}

// GetProfile returns the effective profile for a name, merging the named
// entry over the defaults. An unknown name yields the defaults.
func (d SolverProfileData) GetProfile(name string) SolverProfile {
	result := d[ProfileDefaultsKey]
	profile, ok := d[name]
	if !ok {
		return result
	}

	if profile.MIPGap != 0 {
		result.MIPGap = profile.MIPGap
	}
	if profile.NoPresolve {
		result.NoPresolve = true
	}
	if len(profile.ExtraArgs) > 0 {
		result.ExtraArgs = profile.ExtraArgs
	}
	return result
}

// Options converts the profile into solver invocation options.
func (p SolverProfile) Options() solver.Options {
	return solver.Options{
		MIPGap:     p.MIPGap,
		NoPresolve: p.NoPresolve,
		ExtraArgs:  p.ExtraArgs,
	}
}
