package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"usagelens/internal/core/errors"
	"usagelens/internal/shared/observability"
	"usagelens/internal/shared/util"
)

const (
	DefaultBranch  = "main"
	FallbackBranch = "master"
)

// Runner executes git with args in dir and returns combined output.
type Runner func(ctx context.Context, dir string, args ...string) ([]byte, error)

func execGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	return cmd.CombinedOutput()
}

type Options struct {
	Branch            string
	Depth             int
	Token             string
	RequestsPerSecond float64
	Burst             int
	CloneTimeout      time.Duration
	Workers           int
	// APIBaseURL overrides the GitHub API endpoint. Empty means api.github.com.
	APIBaseURL string
}

// Clone is one successfully checked-out repository.
type Clone struct {
	Ref
	Path   string `json:"path"`
	Branch string `json:"branch"`
}

type CloneError struct {
	Repository string `json:"repository"`
	Error      string `json:"error"`
}

// Fetcher clones repositories with a shallow git clone. When a token is set,
// the default branch is looked up through the GitHub API first.
type Fetcher struct {
	opts    Options
	run     Runner
	client  *github.Client
	limiter *util.Limiter
}

func NewFetcher(opts Options) (*Fetcher, error) {
	if opts.Branch == "" {
		opts.Branch = DefaultBranch
	}
	if opts.Depth < 1 {
		opts.Depth = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	f := &Fetcher{opts: opts, run: execGit}
	if opts.Token != "" {
		f.client = github.NewClient(nil).WithAuthToken(opts.Token)
		if opts.APIBaseURL != "" {
			base := opts.APIBaseURL
			if !strings.HasSuffix(base, "/") {
				base += "/"
			}
			u, err := url.Parse(base)
			if err != nil {
				return nil, fmt.Errorf("parse GitHub API url %q: %w", opts.APIBaseURL, err)
			}
			f.client.BaseURL = u
		}
		f.limiter = util.NewLimiter(opts.RequestsPerSecond, opts.Burst)
	}
	return f, nil
}

// WithRunner replaces the git executor.
func (f *Fetcher) WithRunner(run Runner) *Fetcher {
	if run != nil {
		f.run = run
	}
	return f
}

// Fetch clones every ref under dest. Individual failures are collected and
// returned alongside the successful clones, which keep the input order. An
// error is returned only when nothing could be cloned.
func (f *Fetcher) Fetch(ctx context.Context, refs []string, dest string) ([]Clone, []CloneError, error) {
	ctx, span := observability.Tracer.Start(ctx, "repository.Fetch", trace.WithAttributes(
		attribute.Int("repositories", len(refs)),
	))
	defer span.End()

	if len(refs) == 0 {
		return nil, nil, errors.New(errors.CodeValidationError, "no repositories given")
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create clone directory %q: %w", dest, err)
	}

	clones := make([]*Clone, len(refs))
	failures := make([]*CloneError, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Workers)
	for i, raw := range refs {
		g.Go(func() error {
			c, err := f.fetchOne(gctx, raw, dest)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				observability.RepositoryClonesTotal.WithLabelValues("failure").Inc()
				slog.Warn("failed to clone repository", "repository", raw, "error", err)
				failures[i] = &CloneError{Repository: raw, Error: err.Error()}
				return nil
			}
			observability.RepositoryClonesTotal.WithLabelValues("success").Inc()
			slog.Info("cloned repository", "repository", c.Shorthand, "branch", c.Branch)
			clones[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		out  []Clone
		errs []CloneError
	)
	for i := range refs {
		if clones[i] != nil {
			out = append(out, *clones[i])
		}
		if failures[i] != nil {
			errs = append(errs, *failures[i])
		}
	}
	if len(out) == 0 {
		return nil, errs, errors.New(errors.CodeNotFound, "no repositories were successfully cloned")
	}
	return out, errs, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, raw, dest string) (*Clone, error) {
	ref, err := ParseRef(raw)
	if err != nil {
		return nil, err
	}

	branch := f.opts.Branch
	if f.client != nil && branch == DefaultBranch {
		if b, err := f.defaultBranch(ctx, ref); err != nil {
			slog.Debug("default branch lookup failed", "repository", ref.Shorthand, "error", err)
		} else if b != "" {
			branch = b
		}
	}

	path := filepath.Join(dest, ref.Dir())
	err = f.clone(ctx, ref, branch, path)
	if err != nil && branch == DefaultBranch && isMissingBranch(err) {
		slog.Debug("branch not found, retrying", "repository", ref.Shorthand, "branch", FallbackBranch)
		_ = os.RemoveAll(path)
		branch = FallbackBranch
		err = f.clone(ctx, ref, branch, path)
	}
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxRepository, ref.Shorthand)
	}
	return &Clone{Ref: ref, Path: path, Branch: branch}, nil
}

func (f *Fetcher) defaultBranch(ctx context.Context, ref Ref) (string, error) {
	waited, err := f.limiter.Wait(ctx, 1)
	if err != nil {
		return "", err
	}
	if waited > time.Second {
		slog.Debug("github api throttled", "repository", ref.Shorthand, "waited", waited.Round(time.Millisecond))
	}
	repo, resp, err := f.client.Repositories.Get(ctx, ref.Owner, ref.Name)
	if resp != nil {
		f.limiter.Observe(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
	if err != nil {
		return "", err
	}
	return repo.GetDefaultBranch(), nil
}

func (f *Fetcher) clone(ctx context.Context, ref Ref, branch, path string) error {
	if f.opts.CloneTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.CloneTimeout)
		defer cancel()
	}

	args := []string{
		"clone",
		"--depth", fmt.Sprint(f.opts.Depth),
		"--branch", branch,
		"--single-branch",
		ref.URL, path,
	}
	output, err := f.run(ctx, filepath.Dir(path), args...)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.Wrap(ctx.Err(), errors.CodeTimeout, "git clone timed out")
		}
		return fmt.Errorf("git clone failed: %w (command: git %s, output: %s)",
			err, strings.Join(args, " "), strings.TrimSpace(string(output)))
	}
	return nil
}

func isMissingBranch(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "could not find remote branch")
}
