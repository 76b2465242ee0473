package intercept

import "math"

// WebGL parameter constants queried for vendor and renderer strings.
const (
	GLVendor                = 0x1F00
	GLRenderer              = 0x1F01
	GLUnmaskedVendorWebGL   = 0x9245
	GLUnmaskedRendererWebGL = 0x9246
)

// HookPoint is a prototype method wrapped by the interceptor.
type HookPoint struct {
	// Object is the global constructor owning the prototype,
	// e.g. "HTMLCanvasElement".
	Object string

	// Method is the prototype method name, e.g. "toDataURL".
	Method string

	// Signal is latched when the hook matches a call.
	Signal Signal

	// Params restricts matching to calls whose first argument equals one of
	// the values. An empty list matches every call.
	Params []int64
}

// Name returns the qualified method name, e.g.
// "HTMLCanvasElement.prototype.toDataURL".
func (h HookPoint) Name() string {
	return h.Object + ".prototype." + h.Method
}

// Matches reports whether a call with args triggers the hook.
func (h HookPoint) Matches(args []any) bool {
	if len(h.Params) == 0 {
		return true
	}
	if len(args) == 0 {
		return false
	}
	v, ok := toInt64(args[0])
	if !ok {
		return false
	}
	for _, p := range h.Params {
		if p == v {
			return true
		}
	}
	return false
}

// toInt64 converts an exported JavaScript number to int64. Non-integral
// numbers do not convert.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// DefaultHookPoints returns the hook catalog: canvas readback, WebGL vendor
// and renderer queries, and Storage writes.
func DefaultHookPoints() []HookPoint {
	return []HookPoint{
		{Object: "HTMLCanvasElement", Method: "toDataURL", Signal: SignalCanvas},
		{Object: "HTMLCanvasElement", Method: "toBlob", Signal: SignalCanvas},
		{Object: "CanvasRenderingContext2D", Method: "getImageData", Signal: SignalCanvas},
		{
			Object: "WebGLRenderingContext",
			Method: "getParameter",
			Signal: SignalWebGL,
			Params: []int64{GLVendor, GLRenderer, GLUnmaskedVendorWebGL, GLUnmaskedRendererWebGL},
		},
		{Object: "Storage", Method: "setItem", Signal: SignalLocalStorage},
	}
}
