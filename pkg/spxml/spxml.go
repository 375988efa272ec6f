// Package spxml provides the namespace table, element tree, and SOAP 1.1
// framing shared by every wire-facing package in this module. The
// SharePoint services answer with namespace-qualified XML selected by
// fixed paths, so the tree keeps (space, local) pairs explicit instead of
// flattening names.
package spxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Namespace URIs spoken by the SharePoint SOAP and OData surfaces.
const (
	NSSOAP = "http://schemas.xmlsoap.org/soap/envelope/"
	NSSP   = "http://schemas.microsoft.com/sharepoint/soap/"
	NSRS   = "urn:schemas-microsoft-com:rowset"
	NSRow  = "#RowsetSchema" // yes, really
	NSData = "http://schemas.microsoft.com/ado/2007/08/dataservices"
	NSMeta = "http://schemas.microsoft.com/ado/2007/08/dataservices/metadata"

	// NSOut is the namespace of the structured output tree this module
	// emits for consumers such as the CLI shell.
	NSOut = "https://github.com/ox-it/go-sharepoint/"
)

// Attr is a single attribute on an Element. Space is almost always empty;
// the rowset payloads only use plain attribute names.
type Attr struct {
	Space string
	Local string
	Value string
}

// Element is a namespace-aware XML tree node. Text carries the
// concatenated character data of the node; mixed content beyond that is
// not something the Lists service produces.
type Element struct {
	Space    string
	Local    string
	Attrs    []Attr
	Children []*Element
	Text     string
}

// New constructs an element in the given namespace with optional children.
func New(space, local string, children ...*Element) *Element {
	return &Element{Space: space, Local: local, Children: children}
}

// NewText constructs a leaf element holding text content.
func NewText(space, local, text string) *Element {
	return &Element{Space: space, Local: local, Text: text}
}

// SP builds an element in the SharePoint SOAP namespace.
func SP(local string, children ...*Element) *Element {
	return New(NSSP, local, children...)
}

// SPText builds a text leaf in the SharePoint SOAP namespace.
func SPText(local, text string) *Element {
	return NewText(NSSP, local, text)
}

// Out builds an element in the module's output namespace.
func Out(local string, children ...*Element) *Element {
	return New(NSOut, local, children...)
}

// OutText builds a text leaf in the module's output namespace.
func OutText(local, text string) *Element {
	return NewText(NSOut, local, text)
}

// Plain builds an element without a namespace. The UpdateListItems batch
// payload must stay un-namespaced; the service rejects prefixed Batch,
// Method and Field elements.
func Plain(local string, children ...*Element) *Element {
	return New("", local, children...)
}

// PlainText builds an un-namespaced text leaf.
func PlainText(local, text string) *Element {
	return NewText("", local, text)
}

// WithAttr sets a plain attribute and returns the element for chaining.
func (e *Element) WithAttr(local, value string) *Element {
	e.SetAttr(local, value)
	return e
}

// WithText sets the text content and returns the element for chaining.
func (e *Element) WithText(text string) *Element {
	e.Text = text
	return e
}

// SetAttr sets a plain attribute, replacing any existing value.
func (e *Element) SetAttr(local, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Space == "" && e.Attrs[i].Local == local {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Local: local, Value: value})
}

// Attr returns the value of a plain attribute and whether it was present.
func (e *Element) Attr(local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Space == "" && a.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// AttrValue returns a plain attribute value, or "" when absent.
func (e *Element) AttrValue(local string) string {
	v, _ := e.Attr(local)
	return v
}

// AttrMap returns the element's plain attributes as a map.
func (e *Element) AttrMap() map[string]string {
	m := make(map[string]string, len(e.Attrs))
	for _, a := range e.Attrs {
		if a.Space == "" {
			m[a.Local] = a.Value
		}
	}
	return m
}

// Add appends children and returns the element for chaining.
func (e *Element) Add(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Child returns the first direct child matching (space, local), or nil.
func (e *Element) Child(space, local string) *Element {
	for _, c := range e.Children {
		if c.Space == space && c.Local == local {
			return c
		}
	}
	return nil
}

// ChildAll returns every direct child matching (space, local).
func (e *Element) ChildAll(space, local string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Space == space && c.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// Descendant returns the first descendant matching (space, local) in
// document order, or nil.
func (e *Element) Descendant(space, local string) *Element {
	for _, c := range e.Children {
		if c.Space == space && c.Local == local {
			return c
		}
		if found := c.Descendant(space, local); found != nil {
			return found
		}
	}
	return nil
}

// DescendantAll returns every descendant matching (space, local) in
// document order.
func (e *Element) DescendantAll(space, local string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Space == space && c.Local == local {
			out = append(out, c)
		}
		out = append(out, c.DescendantAll(space, local)...)
	}
	return out
}

// Path walks direct children through successive (space, local) steps,
// returning nil as soon as a step is missing.
func (e *Element) Path(steps ...[2]string) *Element {
	cur := e
	for _, step := range steps {
		cur = cur.Child(step[0], step[1])
		if cur == nil {
			return nil
		}
	}
	return cur
}

// MarshalXML implements xml.Marshaler.
func (e *Element) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Space: e.Space, Local: e.Local}}
	for _, a := range e.Attrs {
		start.Attr = append(start.Attr, xml.Attr{
			Name:  xml.Name{Space: a.Space, Local: a.Local},
			Value: a.Value,
		})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if e.Text != "" {
		if err := enc.EncodeToken(xml.CharData(e.Text)); err != nil {
			return err
		}
	}
	for _, c := range e.Children {
		if err := c.MarshalXML(enc, xml.StartElement{}); err != nil {
			return err
		}
	}
	return enc.EncodeToken(xml.EndElement{Name: start.Name})
}

// Marshal renders the element tree as a standalone XML document.
func Marshal(e *Element) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := e.MarshalXML(enc, xml.StartElement{}); err != nil {
		return nil, fmt.Errorf("spxml: marshal %s: %w", e.Local, err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("spxml: marshal %s: %w", e.Local, err)
	}
	return buf.Bytes(), nil
}

// Parse reads an XML document into an element tree.
func Parse(data []byte) (*Element, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader reads an XML document from r into an element tree.
func ParseReader(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("spxml: document has no root element")
		}
		if err != nil {
			return nil, fmt.Errorf("spxml: parse: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return parseElement(dec, start)
		}
	}
}

func parseElement(dec *xml.Decoder, start xml.StartElement) (*Element, error) {
	el := &Element{Space: start.Name.Space, Local: start.Name.Local}
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		el.Attrs = append(el.Attrs, Attr{Space: a.Name.Space, Local: a.Name.Local, Value: a.Value})
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("spxml: parse %s: %w", el.Local, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(dec, t)
			if err != nil {
				return nil, err
			}
			el.Children = append(el.Children, child)
		case xml.CharData:
			el.Text += string(t)
		case xml.EndElement:
			return el, nil
		}
	}
}
