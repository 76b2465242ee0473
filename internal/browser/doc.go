// Package browser turns a target into a rendered model.Page.
//
// Two renderers are provided. SandboxRenderer fetches the document over
// HTTP (or takes it as given) and runs its inline scripts inside the goja
// sandbox from package intercept. ChromeRenderer drives headless Chrome
// through the DevTools protocol with the same hook points injected as a
// document-start script. Both watch the page for an observation window and
// then snapshot the document, the cookie string and the latched signals.
package browser
