package input

import (
	"context"
	"log/slog"
)

// Logged wraps a Capability, logging every failure with operation and platform
// before handing it back to the caller as an *OpError.
type Logged struct {
	next   Capability
	logger *slog.Logger
}

// WithLogging decorates c with failure logging
func WithLogging(c Capability, logger *slog.Logger) *Logged {
	return &Logged{next: c, logger: logger.With("component", "input")}
}

func (l *Logged) check(op string, err error) error {
	if err == nil {
		return nil
	}
	l.logger.Error("Host input call failed", "op", op, "platform", l.next.Platform(), "err", err)
	return &OpError{Op: op, Platform: l.next.Platform(), Err: err}
}

func (l *Logged) MoveRelative(ctx context.Context, dx, dy int) error {
	return l.check("move-relative", l.next.MoveRelative(ctx, dx, dy))
}

func (l *Logged) MoveAbsolute(ctx context.Context, x, y int) error {
	return l.check("move-absolute", l.next.MoveAbsolute(ctx, x, y))
}

func (l *Logged) Click(ctx context.Context, button string) error {
	return l.check("click", l.next.Click(ctx, button))
}

func (l *Logged) Drag(ctx context.Context, startX, startY, endX, endY int) error {
	return l.check("drag", l.next.Drag(ctx, startX, startY, endX, endY))
}

func (l *Logged) Scroll(ctx context.Context, dx, dy float64) error {
	return l.check("scroll", l.next.Scroll(ctx, dx, dy))
}

func (l *Logged) TypeText(ctx context.Context, text string) error {
	return l.check("type-text", l.next.TypeText(ctx, text))
}

func (l *Logged) SendKey(ctx context.Context, key string) error {
	return l.check("send-key", l.next.SendKey(ctx, key))
}

func (l *Logged) PlayPause(ctx context.Context) error {
	return l.check("play-pause", l.next.PlayPause(ctx))
}

func (l *Logged) VolumeUp(ctx context.Context) error {
	return l.check("volume-up", l.next.VolumeUp(ctx))
}

func (l *Logged) VolumeDown(ctx context.Context) error {
	return l.check("volume-down", l.next.VolumeDown(ctx))
}

func (l *Logged) Mute(ctx context.Context) error {
	return l.check("mute", l.next.Mute(ctx))
}

func (l *Logged) NextTrack(ctx context.Context) error {
	return l.check("next-track", l.next.NextTrack(ctx))
}

func (l *Logged) PreviousTrack(ctx context.Context) error {
	return l.check("previous-track", l.next.PreviousTrack(ctx))
}

// Volume queries are expected to fail on some hosts, so they are not logged as errors
func (l *Logged) Volume(ctx context.Context) (float64, error) {
	v, err := l.next.Volume(ctx)
	if err != nil {
		l.logger.Debug("volume query failed", "platform", l.next.Platform(), "err", err)
		return 0, &OpError{Op: "query-volume", Platform: l.next.Platform(), Err: err}
	}
	return v, nil
}

func (l *Logged) Muted(ctx context.Context) (bool, error) {
	m, err := l.next.Muted(ctx)
	if err != nil {
		l.logger.Debug("mute query failed", "platform", l.next.Platform(), "err", err)
		return false, &OpError{Op: "query-mute", Platform: l.next.Platform(), Err: err}
	}
	return m, nil
}

func (l *Logged) Platform() string {
	return l.next.Platform()
}

// CheckDependencies forwards to the wrapped capability when it has external dependencies
func (l *Logged) CheckDependencies(ctx context.Context) error {
	if dc, ok := l.next.(DependencyChecker); ok {
		return dc.CheckDependencies(ctx)
	}
	return nil
}
