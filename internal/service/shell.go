package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/equinetracker/equinetracker/internal/core"
	"github.com/equinetracker/equinetracker/internal/domain/model"
	"github.com/equinetracker/equinetracker/internal/domain/shell"
	apperrors "github.com/equinetracker/equinetracker/internal/errors"
	"github.com/equinetracker/equinetracker/internal/observability/metrics"
	"github.com/equinetracker/equinetracker/internal/observability/statsd"
)

// BarnListCacheKey is the Redis key holding the JSON-encoded barn list.
const BarnListCacheKey = "equinetracker:barns:v1"

// ShellServiceOptions groups dependencies for ShellService.
type ShellServiceOptions struct {
	Users core.UserRepository
	Barns core.BarnRepository
	// Cache is optional; a nil cache or zero CacheTTL reads barns straight from the repository.
	Cache    core.CacheRepository
	CacheTTL time.Duration
	// ReloadMode tags switch metrics with the configured reload strategy.
	ReloadMode string
	Metrics    statsd.Sink
	Logger     *slog.Logger
}

// ShellService loads the signed-in user's barn context and switches the active barn.
type ShellService struct {
	users      core.UserRepository
	barns      core.BarnRepository
	cache      core.CacheRepository
	cacheTTL   time.Duration
	reloadMode string
	metrics    statsd.Sink
	logger     *slog.Logger

	switches singleflight.Group
	lists    singleflight.Group
}

// NewShellService constructs a ShellService.
func NewShellService(opts ShellServiceOptions) *ShellService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ShellService{
		users:      opts.Users,
		barns:      opts.Barns,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		reloadMode: opts.ReloadMode,
		metrics:    opts.Metrics,
		logger:     logger.With("component", "shell"),
	}
}

// LoadUser fetches the current user once. Failures are logged and returned.
func (s *ShellService) LoadUser(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load current user", "user_id", userID, "error", err)
		return nil, mapShellErr(err)
	}
	return u, nil
}

// LoadResult is the outcome of Load. Err carries a user or barn list failure;
// Context is still usable and decides the layout on its own.
type LoadResult struct {
	Context shell.Context
	Err     error
}

// Load builds the shell context for userID. The barn list is only fetched when
// the user has an active barn. Failures never abort the request: a missing user
// yields a no-context shell and a missing barn list yields an in-context shell
// without a resolved barn.
func (s *ShellService) Load(ctx context.Context, userID string) LoadResult {
	start := time.Now()
	res := s.load(ctx, userID)

	result := metrics.ResultSuccess
	if res.Err != nil {
		result = metrics.ResultError
	}
	metrics.EmitShellLoad(s.metrics, metrics.ShellLoad{
		Mode:     res.Context.Mode().String(),
		Selector: res.Context.Selector().String(),
		Result:   result,
		Duration: time.Since(start),
		Err:      res.Err,
	})
	return res
}

func (s *ShellService) load(ctx context.Context, userID string) LoadResult {
	user, err := s.LoadUser(ctx, userID)
	if err != nil {
		return LoadResult{Context: shell.Resolve(nil, nil), Err: err}
	}
	if !user.HasCurrentBarn() {
		return LoadResult{Context: shell.Resolve(user, nil)}
	}

	barns, err := s.ListBarns(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load barn list",
			"user_id", user.ID, "barn_id", user.CurrentBarn(), "error", err)
		return LoadResult{Context: shell.Resolve(user, nil), Err: err}
	}
	return LoadResult{Context: shell.Resolve(user, barns)}
}

// ListBarns returns every barn, served from the cache when possible.
// Concurrent misses share one repository query.
func (s *ShellService) ListBarns(ctx context.Context) ([]model.Barn, error) {
	if barns, ok := s.cachedBarns(ctx); ok {
		return barns, nil
	}

	// The flight is shared, so one caller going away must not fail the rest.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.lists.Do(BarnListCacheKey, func() (any, error) {
		barns, err := s.barns.List(flightCtx)
		if err != nil {
			return nil, err
		}
		s.storeBarns(flightCtx, barns)
		return barns, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list barns: %w", mapShellErr(err))
	}
	// Callers of a shared flight must not alias one backing array.
	shared, _ := v.([]model.Barn)
	return append(make([]model.Barn, 0, len(shared)), shared...), nil
}

func (s *ShellService) cacheEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}

func (s *ShellService) cachedBarns(ctx context.Context) ([]model.Barn, bool) {
	if !s.cacheEnabled() {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, BarnListCacheKey)
	if err != nil {
		s.logger.WarnContext(ctx, "barn cache read failed", "error", err)
		metrics.EmitBarnCache(s.metrics, "error")
		return nil, false
	}
	if raw == nil {
		metrics.EmitBarnCache(s.metrics, "miss")
		return nil, false
	}
	var barns []model.Barn
	if err := json.Unmarshal(raw, &barns); err != nil {
		s.logger.WarnContext(ctx, "barn cache entry unreadable", "error", err)
		metrics.EmitBarnCache(s.metrics, "error")
		return nil, false
	}
	metrics.EmitBarnCache(s.metrics, "hit")
	if barns == nil {
		barns = []model.Barn{}
	}
	return barns, true
}

func (s *ShellService) storeBarns(ctx context.Context, barns []model.Barn) {
	if !s.cacheEnabled() {
		return
	}
	raw, err := json.Marshal(barns)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, BarnListCacheKey, raw, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "barn cache write failed", "error", err)
	}
}

// InvalidateBarns drops the cached barn list.
func (s *ShellService) InvalidateBarns(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if _, err := s.cache.Delete(ctx, BarnListCacheKey); err != nil {
		return fmt.Errorf("invalidate barn cache: %w", err)
	}
	return nil
}

// UpsertBarn writes a barn and invalidates the cached list.
func (s *ShellService) UpsertBarn(ctx context.Context, req *model.UpsertBarnRequest) (*model.Barn, error) {
	b, err := s.barns.Upsert(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.InvalidateBarns(ctx); err != nil {
		s.logger.WarnContext(ctx, "barn cache invalidation failed", "barn_id", b.ID, "error", err)
	}
	return b, nil
}

// SwitchBarnInput groups parameters for SwitchBarn.
// Seq is the barn_switch_seq the caller last saw; nil skips the staleness check.
type SwitchBarnInput struct {
	UserID string
	BarnID string
	Seq    *int64
}

// SwitchBarn persists the user's active barn. It never touches in-memory shell
// state; callers reload to observe the change. A switch that lost a race to a
// newer one returns an error matching core.ErrStaleSwitch.
func (s *ShellService) SwitchBarn(ctx context.Context, in SwitchBarnInput) (*model.User, error) {
	start := time.Now()
	in.UserID = strings.TrimSpace(in.UserID)
	in.BarnID = strings.TrimSpace(in.BarnID)

	u, err := s.switchBarn(ctx, in)

	result := metrics.ResultSuccess
	switch {
	case errors.Is(err, core.ErrStaleSwitch):
		result = metrics.ResultStale
		s.logger.InfoContext(ctx, "stale barn switch ignored", "user_id", in.UserID, "barn_id", in.BarnID)
	case err != nil:
		result = metrics.ResultError
		s.logger.ErrorContext(ctx, "barn switch failed", "user_id", in.UserID, "barn_id", in.BarnID, "error", err)
	default:
		s.logger.InfoContext(ctx, "barn switched",
			"user_id", in.UserID, "barn_id", in.BarnID, "seq", u.BarnSwitchSeq)
	}
	metrics.EmitBarnSwitch(s.metrics, metrics.BarnSwitch{
		Result:     result,
		ReloadMode: s.reloadMode,
		Duration:   time.Since(start),
		Err:        err,
	})
	return u, err
}

func (s *ShellService) switchBarn(ctx context.Context, in SwitchBarnInput) (*model.User, error) {
	if in.UserID == "" {
		return nil, mapShellErr(core.ErrUserNotFound)
	}
	if in.BarnID == "" {
		return nil, apperrors.ValidationField("barn_id", "barn_id is required")
	}

	key := in.UserID + "\x00" + in.BarnID
	if in.Seq != nil {
		key += "\x00" + strconv.FormatInt(*in.Seq, 10)
	}
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.switches.Do(key, func() (any, error) {
		if _, err := s.barns.GetByID(flightCtx, in.BarnID); err != nil {
			return nil, err
		}
		return s.users.UpdateCurrentBarn(flightCtx, core.UpdateCurrentBarnParams{
			UserID:      in.UserID,
			BarnID:      in.BarnID,
			ExpectedSeq: in.Seq,
		})
	})
	if err != nil {
		return nil, mapShellErr(err)
	}
	u, _ := v.(*model.User)
	return u, nil
}

// UpdateCurrentUser applies a partial update from the API. Only the active barn is writable.
func (s *ShellService) UpdateCurrentUser(
	ctx context.Context,
	userID string,
	req *model.UpdateCurrentUserRequest,
) (*model.User, error) {
	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.ValidationField("current_barn_id", err.Error())
	}
	return s.SwitchBarn(ctx, SwitchBarnInput{UserID: userID, BarnID: *req.CurrentBarnID, Seq: req.Seq})
}

// SelectableBarn is one row on the barn selection page.
type SelectableBarn struct {
	model.Barn
	Current bool
}

// BarnSelection is the data behind the barn selection page.
type BarnSelection struct {
	Context shell.Context
	Barns   []SelectableBarn
}

// BarnSelection loads the user and barn list concurrently. It offers the
// user's associated barns, or every barn when the user has none associated.
func (s *ShellService) BarnSelection(ctx context.Context, userID string) (*BarnSelection, error) {
	var (
		user  *model.User
		barns []model.Barn
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.LoadUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		barns, err = s.ListBarns(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sc := shell.Resolve(user, barns)
	// Resolve leaves UserBarns empty without a current barn, so filter here.
	offered := shell.AssociatedBarns(user, barns)
	if len(user.AssociatedBarns) == 0 {
		offered = barns
	}
	out := &BarnSelection{Context: sc, Barns: make([]SelectableBarn, 0, len(offered))}
	for _, b := range offered {
		out.Barns = append(out.Barns, SelectableBarn{Barn: b, Current: b.ID == user.CurrentBarn()})
	}
	return out, nil
}

// mapShellErr converts repository sentinels into AppErrors that still match them with errors.Is.
func mapShellErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrUserNotFound):
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, "user not found")
	case errors.Is(err, core.ErrBarnNotFound):
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, "barn not found")
	case errors.Is(err, core.ErrStaleSwitch):
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, "a newer barn switch already applied")
	default:
		return err
	}
}
