package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/tidemill/boardd/pkg/board"
	"github.com/tidemill/boardd/pkg/view"
)

// DefaultGitHubInterval is the poll interval when none is configured.
const DefaultGitHubInterval = 30 * time.Second

// GitHubSource polls a repository's issues and presents them as a flat
// update. Each issue becomes one raw item with status, assignee, milestone,
// and label properties, so any of those can serve as the grouping key.
type GitHubSource struct {
	owner    string
	repo     string
	base     view.Context
	interval time.Duration
	logger   *zap.Logger
	onError  func(error)
	client   *github.Client
	limiter  *rate.Limiter

	notifs chan Notification
	stop   chan struct{}
}

// GitHubOptions configures a GitHubSource.
type GitHubOptions struct {
	// Owner and Repo identify the repository. Both required.
	Owner string
	Repo  string

	// Token authenticates API calls. Empty means unauthenticated access,
	// which works for public repositories at a much lower rate limit.
	Token string

	// Base view context merged into every notification.
	Base view.Context

	// Interval between polls. Defaults to DefaultGitHubInterval.
	Interval time.Duration

	// Logger for poll diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// OnError is called with errors the source absorbs while it keeps
	// polling, so a frontend can surface them. Optional; must not block.
	OnError func(error)

	// Client overrides the API client; used by tests to point at a fake
	// server. When set, Token is ignored.
	Client *github.Client
}

// NewGitHubSource creates a source polling issues from opts.Owner/opts.Repo.
func NewGitHubSource(ctx context.Context, opts GitHubOptions) (*GitHubSource, error) {
	if opts.Owner == "" || opts.Repo == "" {
		return nil, errors.New("github source: owner and repo are required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultGitHubInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	client := opts.Client
	if client == nil {
		if opts.Token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
			client = github.NewClient(oauth2.NewClient(ctx, ts))
		} else {
			client = github.NewClient(nil)
		}
	}

	return &GitHubSource{
		owner:    opts.Owner,
		repo:     opts.Repo,
		base:     opts.Base,
		interval: opts.Interval,
		logger:   opts.Logger,
		onError:  opts.OnError,
		client:   client,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 3),
		notifs:   make(chan Notification, 10),
		stop:     make(chan struct{}),
	}, nil
}

// Name implements Source.
func (s *GitHubSource) Name() string {
	return fmt.Sprintf("github:%s/%s", s.owner, s.repo)
}

// Start implements Source. The first poll runs right away so the board has
// data without waiting a full interval, but in the background: a rate-limited
// first fetch pauses until the limit resets, and startup must not wait on
// that.
func (s *GitHubSource) Start(ctx context.Context) error {
	go func() {
		s.poll(ctx)
		s.loop(ctx)
	}()
	return nil
}

// Stop implements Source.
func (s *GitHubSource) Stop() {
	select {
	case <-s.stop:
		return
	default:
		close(s.stop)
	}
}

// Notifications implements Source.
func (s *GitHubSource) Notifications() <-chan Notification {
	return s.notifs
}

func (s *GitHubSource) report(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}

func (s *GitHubSource) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// poll fetches issues and emits one flat update. A failed poll keeps the
// previous board; when the failure is a rate limit, polling pauses until the
// limit resets.
func (s *GitHubSource) poll(ctx context.Context) {
	items, err := s.fetch(ctx)
	if err != nil {
		if delay, ok := rateLimitDelay(err); ok {
			s.logger.Warn("rate limited, pausing polls",
				zap.Duration("delay", delay))
			s.report(fmt.Errorf("rate limited, polls paused for %s", delay.Round(time.Second)))
			select {
			case <-time.After(delay):
			case <-s.stop:
			case <-ctx.Done():
			}
			return
		}
		s.logger.Warn("issue fetch failed, keeping last board",
			zap.String("repo", s.owner+"/"+s.repo),
			zap.Error(err))
		s.report(err)
		return
	}

	n := newNotification(s.Name(), board.Flat(items), s.base)
	select {
	case s.notifs <- n:
		s.logger.Debug("issues emitted",
			zap.String("notification_id", n.ID),
			zap.Int("issues", len(items)))
	default:
		s.logger.Debug("notification channel full, dropping",
			zap.String("notification_id", n.ID))
	}
}

// fetch lists all issues in the repository, following pagination.
func (s *GitHubSource) fetch(ctx context.Context) ([]board.RawItem, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var items []board.RawItem
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		issues, resp, err := s.client.Issues.ListByRepo(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list issues: %w", err)
		}

		for _, issue := range issues {
			// The issues API interleaves pull requests; the board only
			// shows real issues.
			if issue.IsPullRequest() {
				continue
			}
			items = append(items, issueItem(issue))
		}

		if resp.NextPage == 0 {
			return items, nil
		}
		opts.Page = resp.NextPage
	}
}

// issueItem flattens one issue into a raw item keyed by the properties a
// board is likely to group on.
func issueItem(issue *github.Issue) board.RawItem {
	item := board.RawItem{
		"id":     issue.GetNumber(),
		"title":  issue.GetTitle(),
		"status": issue.GetState(),
	}
	if user := issue.GetAssignee(); user != nil {
		item["assignee"] = user.GetLogin()
	}
	if ms := issue.GetMilestone(); ms != nil {
		item["milestone"] = ms.GetTitle()
	}
	if len(issue.Labels) > 0 {
		labels := make([]any, 0, len(issue.Labels))
		for _, l := range issue.Labels {
			labels = append(labels, l.GetName())
		}
		item["label"] = labels
	}
	return item
}

// rateLimitDelay reports how long to pause when err is a rate limit
// rejection, honoring the reset time the API announced.
func rateLimitDelay(err error) (time.Duration, bool) {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		delay := time.Until(rle.Rate.Reset.Time) + time.Second
		if delay < time.Second {
			delay = time.Second
		}
		return delay, true
	}

	var arle *github.AbuseRateLimitError
	if errors.As(err, &arle) {
		if arle.RetryAfter != nil {
			return *arle.RetryAfter, true
		}
		return time.Minute, true
	}

	return 0, false
}
