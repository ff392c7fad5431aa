// Package repository resolves declared artifact repositories into the
// ordered URL list handed to the dependency manager.
package repository

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Well-known repository shortcuts.
const (
	GradlePluginPortalURL = "https://plugins.gradle.org/m2/"
	MavenCentralURL       = "https://repo.maven.apache.org/maven2/"
	GoogleURL             = "https://dl.google.com/dl/android/maven2/"
	MavenLocalURL         = "~/.m2/repository"
)

var shortcuts = map[string]string{
	"gradlePluginPortal": GradlePluginPortalURL,
	"mavenCentral":       MavenCentralURL,
	"google":             GoogleURL,
	"mavenLocal":         MavenLocalURL,
}

// ShortcutURL returns the URL of a well-known repository function such as
// mavenCentral.
func ShortcutURL(name string) (string, bool) {
	u, ok := shortcuts[name]
	return u, ok
}

// Source is a declared repository.
type Source struct {
	Name           string `json:"name" yaml:"name"`
	URL            string `json:"url" yaml:"url"`
	Priority       int    `json:"priority" yaml:"priority"`
	EnvOverrideVar string `json:"env_override_var,omitempty" yaml:"env_override_var,omitempty"`
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	Line           int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// Origin tells where a resolved URL came from.
type Origin string

const (
	OriginDefault     Origin = "default"
	OriginEnvironment Origin = "env"
)

// Resolved is a source after environment overrides were applied.
type Resolved struct {
	Source Source `json:"source"`
	URL    string `json:"url"`
	Origin Origin `json:"origin"`
}

// UnresolvedEnvOverrideError reports a referenced override variable that is
// absent or empty. It is a warning: resolution falls back to the literal
// default and never fails because of it.
type UnresolvedEnvOverrideError struct {
	Var      string
	Fallback string
}

func (e *UnresolvedEnvOverrideError) Error() string {
	return fmt.Sprintf("environment variable %s is not set, using default %s", e.Var, e.Fallback)
}

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Resolve returns the enabled sources ordered by priority with environment
// overrides applied. A nil lookup uses the process environment.
func Resolve(sources []Source, lookup LookupFunc) ([]Resolved, []*UnresolvedEnvOverrideError) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	enabled := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority < enabled[j].Priority
	})

	var warnings []*UnresolvedEnvOverrideError
	out := make([]Resolved, 0, len(enabled))
	for _, s := range enabled {
		r := Resolved{Source: s, URL: s.URL, Origin: OriginDefault}
		if s.EnvOverrideVar != "" {
			if v, ok := lookup(s.EnvOverrideVar); ok && strings.TrimSpace(v) != "" {
				r.URL = strings.TrimSpace(v)
				r.Origin = OriginEnvironment
			} else {
				warnings = append(warnings, &UnresolvedEnvOverrideError{Var: s.EnvOverrideVar, Fallback: s.URL})
			}
		}
		out = append(out, r)
	}
	return out, warnings
}

// URLs flattens resolved sources, dropping repeated URLs while keeping the
// first occurrence.
func URLs(resolved []Resolved) []string {
	seen := make(map[string]bool, len(resolved))
	out := make([]string, 0, len(resolved))
	for _, r := range resolved {
		if seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r.URL)
	}
	return out
}
