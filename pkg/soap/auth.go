package soap

import (
	"net/http"

	"github.com/Azure/go-ntlmssp"
)

// basicAuthTransport attaches credentials preemptively. SharePoint farms
// behind basic auth do not reliably send a challenge, so waiting for a
// 401 before authenticating loses the first request.
type basicAuthTransport struct {
	username string
	password string
	next     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.SetBasicAuth(t.username, t.password)
	return t.next.RoundTrip(clone)
}

// BasicAuth returns an http.Client that sends preemptive basic
// authentication on every request.
func BasicAuth(username, password string) *http.Client {
	return &http.Client{
		Transport: &basicAuthTransport{
			username: username,
			password: password,
			next:     http.DefaultTransport,
		},
	}
}

// NTLMAuth returns an http.Client that negotiates NTLM, falling back to
// basic auth when the server allows it.
func NTLMAuth(username, password string) *http.Client {
	return &http.Client{
		Transport: &basicAuthTransport{
			username: username,
			password: password,
			next:     ntlmssp.Negotiator{RoundTripper: http.DefaultTransport},
		},
	}
}
