package web

import (
	"net/http"
	"strings"
)

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client should get JSON. API routes default
// to JSON unless the request came from htmx or a browser form.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	if strings.Contains(accept, "text/html") {
		return false
	}
	if isJSONBody(r) {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/") && !isHTMX(r)
}

// isJSONBody reports whether the request body is JSON.
func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// formValues returns the values posted under name or name+"[]".
func formValues(r *http.Request, name string) []string {
	if err := r.ParseForm(); err != nil {
		return nil
	}
	vals := append([]string(nil), r.Form[name+"[]"]...)
	return append(vals, r.Form[name]...)
}
