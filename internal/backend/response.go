package backend

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/jabber-tools/nlptestrunner/internal/nlperr"
)

// canonicalizeAndExtractIntent re-serializes raw body in canonical pretty
// form (so downstream diffs are stable across runs) and reads the real
// intent display name at the given dotted path, e.g.
// ("queryResult","intent","displayName").
func canonicalizeAndExtractIntent(raw []byte, path ...string) (canonicalJSON, intentName string, err error) {
	var doc any
	if uerr := json.Unmarshal(raw, &doc); uerr != nil {
		return "", "", nlperr.Wrap(nlperr.KindJSONParsing, "failed to parse backend response", uerr)
	}

	pretty, merr := json.MarshalIndent(doc, "", "  ")
	if merr != nil {
		return "", "", nlperr.Wrap(nlperr.KindJSONSerDeser, "failed to canonicalize backend response", merr)
	}

	intentName = extractStringPath(doc, path)
	return string(pretty), intentName, nil
}

func extractStringPath(doc any, path []string) string {
	current := doc
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		v, exists := m[key]
		if !exists {
			return ""
		}
		current = v
	}
	s, _ := current.(string)
	return s
}

// newHTTPClient builds the shared client used for both the token exchange
// and the per-turn invocation. When proxyURL is non-empty both variants
// route their requests through it, per the optional http_proxy suite
// configuration key.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	}
	return &http.Client{Transport: transport}
}

// scrubVAPContextConfig replaces vaContext.config in a decoded VAP response
// with the literal scrubbed object, per the response-scrubbing invariant.
func scrubVAPContextConfig(doc map[string]any) {
	vaContext, ok := doc["vaContext"].(map[string]any)
	if !ok {
		return
	}
	vaContext["config"] = map[string]any{"note": "config removed for security reasons"}
}
