package intercept

import (
	"context"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"

	"github.com/nao1215/privacylens/internal/model"
)

//go:embed bootstrap.js
var bootstrapJS string

// DefaultUserAgent is the navigator.userAgent reported inside the sandbox.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// maxTimerFirings bounds the number of timer callbacks per run.
const maxTimerFirings = 10000

// RunResult summarizes a sandbox run.
type RunResult struct {
	// Executed counts inline scripts that ran to completion.
	Executed int

	// Failed counts scripts and callbacks that threw.
	Failed int

	// TimersFired counts timer callbacks that ran.
	TimersFired int

	// Interrupted is true when the observation window or the context ended
	// the run early.
	Interrupted bool
}

// Sandbox executes page scripts in an embedded JavaScript VM with the
// interceptor's hooks installed. A Sandbox runs one page and is not safe for
// concurrent use.
type Sandbox struct {
	vm          *goja.Runtime
	interceptor *Interceptor
	logger      *slog.Logger
	jar         *cookieJar
	timers      *timerQueue
	native      *goja.Object
	pageURL     *url.URL
	userAgent   string
	cookie      string
	ctx         context.Context //nolint:containedctx // hooks run inside VM callbacks that carry no context
}

// SandboxOption configures a Sandbox.
type SandboxOption func(*Sandbox)

// WithSandboxLogger sets the logger for script errors and page console output.
func WithSandboxLogger(logger *slog.Logger) SandboxOption {
	return func(s *Sandbox) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCookies seeds document.cookie, typically from the Cookie header sent
// with the page request and the Set-Cookie headers of the response.
func WithCookies(cookie string) SandboxOption {
	return func(s *Sandbox) {
		s.cookie = cookie
	}
}

// WithUserAgent sets navigator.userAgent.
func WithUserAgent(ua string) SandboxOption {
	return func(s *Sandbox) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// NewSandbox creates a VM for the page at pageURL, sets up the browser
// surface and installs the interceptor's hooks before any page script can
// run.
func NewSandbox(pageURL *url.URL, interceptor *Interceptor, opts ...SandboxOption) (*Sandbox, error) {
	s := &Sandbox{
		vm:          goja.New(),
		interceptor: interceptor,
		logger:      slog.Default(),
		timers:      newTimerQueue(),
		pageURL:     pageURL,
		userAgent:   DefaultUserAgent,
		ctx:         context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.jar = newCookieJar(s.cookie)

	registry := new(require.Registry)
	registry.RegisterNativeModule("console", console.RequireWithPrinter(consolePrinter{logger: s.logger}))
	registry.Enable(s.vm)
	console.Enable(s.vm)

	if err := s.setNatives(); err != nil {
		return nil, err
	}
	if _, err := s.vm.RunScript("bootstrap.js", bootstrapJS); err != nil {
		return nil, fmt.Errorf("failed to set up browser environment: %w", err)
	}
	if err := s.install(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sandbox) setNatives() error {
	n := s.vm.NewObject()
	u := s.pageURL
	location := map[string]any{
		"href":     u.String(),
		"protocol": u.Scheme + ":",
		"host":     u.Host,
		"hostname": u.Hostname(),
		"port":     u.Port(),
		"pathname": u.EscapedPath(),
		"search":   searchOf(u),
		"hash":     hashOf(u),
		"origin":   u.Scheme + "://" + u.Host,
	}
	values := map[string]any{
		"location":      location,
		"userAgent":     s.userAgent,
		"addTimer":      s.addTimer,
		"clearTimer":    s.clearTimer,
		"now":           func() float64 { return float64(s.timers.now) / float64(time.Millisecond) },
		"getCookie":     func() string { return s.jar.String() },
		"setCookie":     func(v string) { s.jar.Set(v) },
		"canvasDataURL": canvasDataURL,
	}
	for k, v := range values {
		if err := n.Set(k, v); err != nil {
			return fmt.Errorf("failed to set sandbox native %s: %w", k, err)
		}
	}
	s.native = n
	return s.vm.Set("__privacylens", n)
}

// install replaces every hook point's prototype method with the
// interceptor's Wrap around the original, called with the same receiver and
// arguments. The original's value is returned to the page unchanged.
func (s *Sandbox) install() error {
	global := s.vm.GlobalObject()
	for _, hp := range s.interceptor.HookPoints() {
		ctor := global.Get(hp.Object)
		if ctor == nil || goja.IsUndefined(ctor) || goja.IsNull(ctor) {
			return fmt.Errorf("%w: %s", ErrHookTarget, hp.Name())
		}
		proto := ctor.ToObject(s.vm).Get("prototype")
		if proto == nil || goja.IsUndefined(proto) {
			return fmt.Errorf("%w: %s", ErrHookTarget, hp.Name())
		}
		protoObj := proto.ToObject(s.vm)
		original, ok := goja.AssertFunction(protoObj.Get(hp.Method))
		if !ok {
			return fmt.Errorf("%w: %s", ErrHookTarget, hp.Name())
		}

		wrapper := func(call goja.FunctionCall) goja.Value {
			var ret goja.Value
			delegate := s.interceptor.Wrap(hp, func(context.Context, []any) (any, error) {
				v, err := original(call.This, call.Arguments...)
				if err != nil {
					return nil, err
				}
				ret = v
				return v.Export(), nil
			})
			if _, err := delegate(s.ctx, exportArgs(call.Arguments)); err != nil {
				panic(err)
			}
			return ret
		}
		if err := protoObj.Set(hp.Method, wrapper); err != nil {
			return fmt.Errorf("failed to install hook %s: %w", hp.Name(), err)
		}
	}
	return nil
}

// Run executes the inline scripts in document order, dispatches the
// DOMContentLoaded and load events, then fires timers until the virtual
// clock passes window. The same window bounds wall-clock execution: a
// script still running when it elapses is interrupted and the run ends.
// Every script and callback runs on its own; an exception is logged and
// the next one runs.
func (s *Sandbox) Run(ctx context.Context, scripts []model.Script, window time.Duration) RunResult {
	s.ctx = ctx
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		t := time.NewTimer(window)
		defer t.Stop()
		select {
		case <-t.C:
			s.vm.Interrupt(ErrWindowElapsed)
		case <-ctx.Done():
			s.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	defer func() {
		close(done)
		<-stopped
		s.vm.ClearInterrupt()
	}()

	var res RunResult
	if err := s.callNative("seedScripts", s.vm.ToValue(len(scripts))); err != nil {
		s.logger.DebugContext(ctx, "failed to seed script elements", slog.Any("error", err))
	}
	for _, sc := range scripts {
		if sc.Src != "" || sc.Text == "" {
			continue
		}
		name := "inline script #" + strconv.Itoa(sc.Index)
		ok, stop := s.exec(ctx, &res, name, func() error {
			_, err := s.vm.RunScript(name, sc.Text)
			return err
		})
		if stop {
			return res
		}
		if ok {
			res.Executed++
		}
	}

	for _, ev := range []struct{ state, target, event string }{
		{state: "interactive", target: "document", event: "DOMContentLoaded"},
		{state: "complete", target: "window", event: "load"},
	} {
		if _, stop := s.exec(ctx, &res, ev.event, func() error { return s.dispatch(ev.state, ev.target, ev.event) }); stop {
			return res
		}
	}

	for res.TimersFired < maxTimerFirings {
		t, ok := s.timers.pop(window)
		if !ok {
			break
		}
		res.TimersFired++
		if _, stop := s.exec(ctx, &res, "timer "+strconv.FormatInt(t.id, 10), func() error {
			_, err := t.fn(goja.Undefined())
			return err
		}); stop {
			return res
		}
	}
	if s.timers.pending() > 0 {
		s.logger.DebugContext(ctx, "observation window closed with pending timers",
			slog.Int("pending", s.timers.pending()),
			slog.Duration("window", window),
		)
	}
	return res
}

// exec runs fn and classifies its error. ok is false when fn threw; stop is
// true when the VM was interrupted.
func (s *Sandbox) exec(ctx context.Context, res *RunResult, name string, fn func() error) (ok bool, stop bool) {
	err := fn()
	if err == nil {
		return true, false
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		res.Interrupted = true
		s.logger.DebugContext(ctx, "page execution interrupted",
			slog.String("script", name),
			slog.Any("reason", interrupted.Value()),
		)
		return false, true
	}
	res.Failed++
	s.logger.DebugContext(ctx, "page script error",
		slog.String("script", name),
		slog.Any("error", err),
	)
	return false, false
}

func (s *Sandbox) dispatch(state, target, event string) error {
	if err := s.callNative("setReadyState", s.vm.ToValue(state)); err != nil {
		return err
	}
	return s.callNative("fire", s.vm.ToValue(target), s.vm.ToValue(event))
}

func (s *Sandbox) callNative(name string, args ...goja.Value) error {
	fn, ok := goja.AssertFunction(s.native.Get(name))
	if !ok {
		return fmt.Errorf("%w: %s", ErrHookTarget, name)
	}
	_, err := fn(goja.Undefined(), args...)
	return err
}

// Eval runs src in the page context and returns its exported value.
func (s *Sandbox) Eval(src string) (any, error) {
	v, err := s.vm.RunString(src)
	if err != nil {
		return nil, err
	}
	return v.Export(), nil
}

// Element is a resource element (script, img, iframe or link) that page
// scripts attached to the document.
type Element struct {
	Tag    string
	InHead bool
	Attrs  map[string]string
}

// Attached returns the resource elements page scripts attached to the
// document that are still attached, in the order they were first attached.
// Elements carrying none of src, href or data-src are left out.
func (s *Sandbox) Attached() ([]Element, error) {
	v, err := s.Eval("__privacylens.attached()")
	if err != nil {
		return nil, fmt.Errorf("failed to read attached elements: %w", err)
	}
	list, _ := v.([]any)
	elems := make([]Element, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		el := Element{Attrs: map[string]string{}}
		el.Tag, _ = m["tag"].(string)
		el.InHead, _ = m["inHead"].(bool)
		if attrs, ok := m["attrs"].(map[string]any); ok {
			for k, a := range attrs {
				el.Attrs[k] = fmt.Sprint(a)
			}
		}
		elems = append(elems, el)
	}
	return elems, nil
}

// Cookie returns document.cookie as seen by page scripts.
func (s *Sandbox) Cookie() string {
	return s.jar.String()
}

// Signals returns the signals latched so far.
func (s *Sandbox) Signals() model.RuntimeSignals {
	return s.interceptor.Flags().Snapshot()
}

func (s *Sandbox) addTimer(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		return s.vm.ToValue(0)
	}
	delay := time.Duration(call.Argument(1).ToFloat() * float64(time.Millisecond))
	return s.vm.ToValue(s.timers.add(fn, delay, call.Argument(2).ToBoolean()))
}

func (s *Sandbox) clearTimer(call goja.FunctionCall) goja.Value {
	s.timers.clear(call.Argument(0).ToInteger())
	return goja.Undefined()
}

func exportArgs(values []goja.Value) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v.Export()
	}
	return args
}

// canvasDataURL returns a stable data URL for a canvas of the given size.
// A zero-sized canvas yields "data:," like browsers do.
func canvasDataURL(width, height int64, mime string) string {
	if width <= 0 || height <= 0 {
		return "data:,"
	}
	if mime != "image/jpeg" && mime != "image/webp" {
		mime = "image/png"
	}
	payload := fmt.Sprintf("canvas:%dx%d:%s", width, height, mime)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString([]byte(payload))
}

func searchOf(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}

func hashOf(u *url.URL) string {
	if u.Fragment == "" {
		return ""
	}
	return "#" + u.EscapedFragment()
}
