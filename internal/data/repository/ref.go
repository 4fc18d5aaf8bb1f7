// Package repository clones GitHub repositories for multi-repo analysis and
// folds the per-repository aggregates into a combined report.
package repository

import (
	"regexp"
	"strings"

	"usagelens/internal/core/errors"
)

const githubHost = "github.com"

var (
	shorthandRe = regexp.MustCompile(`^([\w.-]+)/([\w.-]+)$`)
	httpsRe     = regexp.MustCompile(`^https?://(?:www\.)?github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)
	sshRe       = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?$`)
)

// Ref identifies one GitHub repository.
type Ref struct {
	Owner     string `json:"owner"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Shorthand string `json:"shorthand"`
}

// ParseRef accepts owner/repo, https://github.com/owner/repo(.git) and
// git@github.com:owner/repo.git.
func ParseRef(raw string) (Ref, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Ref{}, errors.New(errors.CodeValidationError, "repository reference is empty")
	}

	if m := sshRe.FindStringSubmatch(s); m != nil {
		return newRef(m[1], m[2], s), nil
	}
	if m := httpsRe.FindStringSubmatch(s); m != nil {
		return newRef(m[1], m[2], ""), nil
	}
	if !strings.Contains(s, ":") && !strings.Contains(s, githubHost) {
		if m := shorthandRe.FindStringSubmatch(s); m != nil {
			return newRef(m[1], strings.TrimSuffix(m[2], ".git"), ""), nil
		}
	}

	return Ref{}, errors.AddContext(
		errors.Newf(errors.CodeValidationError, "invalid GitHub repository %q: expected owner/repo or https://github.com/owner/repo", raw),
		errors.CtxRepository, raw,
	)
}

func newRef(owner, name, cloneURL string) Ref {
	if cloneURL == "" {
		cloneURL = "https://" + githubHost + "/" + owner + "/" + name + ".git"
	}
	return Ref{
		Owner:     owner,
		Name:      name,
		URL:       cloneURL,
		Shorthand: owner + "/" + name,
	}
}

// Dir is the checkout directory name used under the clone root.
func (r Ref) Dir() string {
	return r.Owner + "-" + r.Name
}

func (r Ref) String() string {
	return r.Shorthand
}
