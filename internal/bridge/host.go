package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/privacylens/internal/browser"
	"github.com/nao1215/privacylens/internal/model"
)

// DefaultResolveTimeout bounds an active-tab lookup.
const DefaultResolveTimeout = 5 * time.Second

// Analyzer produces a report for a target. pipeline.Aggregator satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, target browser.Target) (*model.AnalysisReport, error)
}

// Host serves native messaging requests. The store is only touched from
// the goroutine running Serve.
type Host struct {
	store          Store
	tracker        *TabTracker
	resolver       TabResolver
	analyzer       Analyzer
	resolveTimeout time.Duration
	logger         *slog.Logger
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithResolver replaces the built-in tab tracker as the source of the
// active tab for GET_ANALYSIS.
func WithResolver(r TabResolver) HostOption {
	return func(h *Host) {
		h.resolver = r
	}
}

// WithAnalyzer enables ANALYZE requests.
func WithAnalyzer(a Analyzer) HostOption {
	return func(h *Host) {
		h.analyzer = a
	}
}

// WithResolveTimeout bounds active-tab lookups.
func WithResolveTimeout(d time.Duration) HostOption {
	return func(h *Host) {
		if d > 0 {
			h.resolveTimeout = d
		}
	}
}

// WithHostLogger sets the logger.
func WithHostLogger(logger *slog.Logger) HostOption {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHost creates a Host backed by store.
func NewHost(store Store, opts ...HostOption) *Host {
	h := &Host{
		store:          store,
		tracker:        NewTabTracker(),
		resolveTimeout: DefaultResolveTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.resolver == nil {
		h.resolver = h.tracker
	}
	return h
}

// Tracker returns the host's tab tracker.
func (h *Host) Tracker() *TabTracker {
	return h.tracker
}

type incoming struct {
	raw []byte
	err error
}

// completion is work finished off the loop that must be applied on it.
type completion func(ctx context.Context)

// Serve reads requests from r and writes responses to w until r is
// exhausted or ctx is cancelled. Requests waiting on a lookup or an
// analysis are answered before Serve returns on end of input.
func (h *Host) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	enc := NewEncoder(w)
	in := make(chan incoming)
	go func() {
		defer close(in)
		for {
			raw, err := ReadMessage(r)
			if err != nil && !errors.Is(err, ErrMessageTooLarge) {
				if !errors.Is(err, io.EOF) {
					h.logger.ErrorContext(ctx, "failed to read native message", slog.Any("error", err))
				}
				return
			}
			select {
			case in <- incoming{raw: raw, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	done := make(chan completion)
	pending := 0
	for in != nil || pending > 0 {
		select {
		case msg, open := <-in:
			if !open {
				in = nil
				continue
			}
			if msg.err != nil {
				h.reply(ctx, enc, fail(nil, msg.err))
				continue
			}
			if h.dispatch(ctx, enc, msg.raw, done) {
				pending++
			}
		case fn := <-done:
			pending--
			fn(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// dispatch handles one request. It reports whether the request continues
// asynchronously and will post a completion to done.
func (h *Host) dispatch(ctx context.Context, enc *Encoder, raw []byte, done chan<- completion) bool {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		h.reply(ctx, enc, fail(nil, fmt.Errorf("malformed message: %w", err)))
		return false
	}
	h.logger.DebugContext(ctx, "native message received", slog.String("type", string(req.Type)))

	switch req.Type {
	case TypeAnalysisComplete:
		h.reply(ctx, enc, h.analysisComplete(ctx, req))
	case TypeGetAnalysis:
		if req.TabID != nil {
			h.reply(ctx, enc, h.lookup(ctx, req.RequestID, *req.TabID))
			return false
		}
		h.async(ctx, done, func(actx context.Context) completion {
			tabID, err := h.resolveActiveTab(actx)
			return func(ctx context.Context) {
				if err != nil {
					h.logger.DebugContext(ctx, "active tab unknown", slog.Any("error", err))
					h.reply(ctx, enc, withData(req.RequestID, nil))
					return
				}
				h.reply(ctx, enc, h.lookup(ctx, req.RequestID, tabID))
			}
		})
		return true
	case TypeTabActivated:
		if req.TabID == nil || req.WindowID == nil {
			h.reply(ctx, enc, fail(req.RequestID, ErrMissingTabID))
			return false
		}
		h.tracker.Activate(*req.TabID, *req.WindowID)
		h.reply(ctx, enc, ok(req.RequestID))
	case TypeWindowFocused:
		if req.WindowID == nil {
			h.reply(ctx, enc, fail(req.RequestID, ErrMissingWindowID))
			return false
		}
		h.tracker.Focus(*req.WindowID)
		h.reply(ctx, enc, ok(req.RequestID))
	case TypeTabRemoved:
		h.reply(ctx, enc, h.tabRemoved(ctx, req))
	case TypeAnalyze:
		if h.analyzer == nil {
			h.reply(ctx, enc, fail(req.RequestID, ErrNoAnalyzer))
			return false
		}
		if req.TabID == nil {
			h.reply(ctx, enc, fail(req.RequestID, ErrMissingTabID))
			return false
		}
		tabID := *req.TabID
		h.async(ctx, done, func(actx context.Context) completion {
			report, err := h.analyzer.Analyze(actx, browser.Target{URL: req.URL})
			return func(ctx context.Context) {
				if err != nil {
					h.reply(ctx, enc, fail(req.RequestID, err))
					return
				}
				if err := h.store.Put(ctx, tabID, report); err != nil {
					h.reply(ctx, enc, fail(req.RequestID, err))
					return
				}
				resp := ok(req.RequestID)
				resp.Data, resp.HasData = report, true
				h.reply(ctx, enc, resp)
			}
		})
		return true
	default:
		h.reply(ctx, enc, fail(req.RequestID, fmt.Errorf("%w: %q", ErrUnknownMessageType, req.Type)))
	}
	return false
}

// async runs work on its own goroutine and posts the completion it returns
// back to the loop.
func (h *Host) async(ctx context.Context, done chan<- completion, work func(ctx context.Context) completion) {
	go func() {
		fn := work(ctx)
		select {
		case done <- fn:
		case <-ctx.Done():
		}
	}()
}

func (h *Host) resolveActiveTab(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, h.resolveTimeout)
	defer cancel()
	return h.resolver.ActiveTab(ctx)
}

func (h *Host) analysisComplete(ctx context.Context, req Request) Response {
	if req.TabID == nil {
		return fail(req.RequestID, ErrMissingTabID)
	}
	if req.Data == nil {
		return fail(req.RequestID, ErrMissingData)
	}
	if err := h.store.Put(ctx, *req.TabID, req.Data); err != nil {
		return fail(req.RequestID, err)
	}
	h.logger.InfoContext(ctx, "analysis stored",
		slog.Int("tab", *req.TabID),
		slog.String("url", req.Data.URL),
		slog.Int("score", model.Score(req.Data)),
	)
	return ok(req.RequestID)
}

func (h *Host) lookup(ctx context.Context, id json.RawMessage, tabID int) Response {
	report, err := h.store.Get(ctx, tabID)
	if err != nil {
		return fail(id, err)
	}
	return withData(id, report)
}

func (h *Host) tabRemoved(ctx context.Context, req Request) Response {
	if req.TabID == nil {
		return fail(req.RequestID, ErrMissingTabID)
	}
	h.tracker.Remove(*req.TabID)
	if err := h.store.Delete(ctx, *req.TabID); err != nil {
		return fail(req.RequestID, err)
	}
	return ok(req.RequestID)
}

func (h *Host) reply(ctx context.Context, enc *Encoder, resp Response) {
	err := enc.Encode(resp)
	if errors.Is(err, ErrMessageTooLarge) {
		err = enc.Encode(fail(resp.RequestID, err))
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to write native message", slog.Any("error", err))
	}
}
