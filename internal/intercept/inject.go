package intercept

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// SignalsGlobal is the window property the injected script stores latched
// signals in.
const SignalsGlobal = "__privacylensSignals"

var injectionTemplate = template.Must(template.New("inject").Funcs(template.FuncMap{
	"quote":  jsString,
	"params": jsParams,
}).Parse(`(function () {
  'use strict';
  if (window.{{.Global}}) {
    return;
  }
  var signals = { canvas: false, webgl: false, localStorage: false };
  Object.defineProperty(window, {{quote .Global}}, { value: signals, enumerable: false });
  function hook(owner, method, name, signal, params) {
    if (!owner || !owner.prototype || typeof owner.prototype[method] !== 'function') {
      return;
    }
    var original = owner.prototype[method];
    owner.prototype[method] = function () {
      if (params.length === 0 || params.indexOf(arguments[0]) !== -1) {
        if (!signals[signal]) {
          console.debug('[privacylens] ' + name + ' invoked');
        }
        signals[signal] = true;
      }
      return original.apply(this, arguments);
    };
  }
{{- range .Points}}
  hook(window[{{quote .Object}}], {{quote .Method}}, {{quote .Name}}, {{quote .Signal.String}}, {{params .Params}});
{{- end}}
})();
`))

// InjectionScript renders points as a JavaScript source that wraps the same
// prototype methods in a real browser. It is meant to be evaluated on every
// new document before page scripts run. Latched signals are readable as
// window.__privacylensSignals with the JSON shape of model.RuntimeSignals.
func InjectionScript(points []HookPoint) (string, error) {
	var buf bytes.Buffer
	err := injectionTemplate.Execute(&buf, struct {
		Global string
		Points []HookPoint
	}{Global: SignalsGlobal, Points: points})
	if err != nil {
		return "", fmt.Errorf("failed to render injection script: %w", err)
	}
	return buf.String(), nil
}

// SignalsExpression is the expression that reads the latched signals as a
// JSON string.
func SignalsExpression() string {
	return "JSON.stringify(window." + SignalsGlobal + " || {})"
}

func jsString(s string) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func jsParams(params []int64) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = "0x" + strings.ToUpper(strconv.FormatInt(p, 16))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
