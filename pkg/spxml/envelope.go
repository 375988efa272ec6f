package spxml

import "fmt"

// Envelope wraps a request payload in a SOAP 1.1 Envelope/Body pair.
func Envelope(body *Element) *Element {
	return New(NSSOAP, "Envelope", New(NSSOAP, "Body", body))
}

// BodyPayload returns the first element under the Body of a parsed SOAP
// envelope. Every Lists operation answers with exactly one payload root,
// so anything else is a framing error.
func BodyPayload(root *Element) (*Element, error) {
	if root == nil || root.Space != NSSOAP || root.Local != "Envelope" {
		return nil, fmt.Errorf("spxml: response is not a SOAP envelope")
	}
	body := root.Child(NSSOAP, "Body")
	if body == nil {
		return nil, fmt.Errorf("spxml: SOAP envelope has no body")
	}
	if len(body.Children) == 0 {
		return nil, fmt.Errorf("spxml: SOAP body is empty")
	}
	return body.Children[0], nil
}
