package sendspace

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"golang.org/x/text/encoding/ianaindex"
)

const (
	resultTag = "result"
	statusOK  = "ok"
)

// Param is a single child element of a result document.
type Param struct {
	Value      string
	Attributes map[string]string
}

// Attr returns the named attribute of the entry.
func (p Param) Attr(key string) (string, error) {
	v, ok := p.Attributes[key]
	if !ok {
		return "", fmt.Errorf("%w: attribute %q", ErrParamMissing, key)
	}
	return v, nil
}

// Envelope is the parsed form of one API response.
type Envelope struct {
	// Result holds the attributes of the root element (status, method).
	Result map[string]string
	// Params maps a child tag name to its entries in document order.
	Params map[string][]Param
	// Names lists the distinct child tag names in first-encounter order.
	Names []string
}

// Status returns the status attribute of the root element.
func (e *Envelope) Status() string {
	return e.Result["status"]
}

// Method returns the method name echoed back by the API.
func (e *Envelope) Method() string {
	return e.Result["method"]
}

// All returns every entry recorded under name.
func (e *Envelope) All(name string) []Param {
	return e.Params[name]
}

// First returns the first entry recorded under name.
func (e *Envelope) First(name string) (Param, error) {
	entries := e.Params[name]
	if len(entries) == 0 {
		return Param{}, fmt.Errorf("%w: %q", ErrParamMissing, name)
	}
	return entries[0], nil
}

// Value returns the text of the first entry recorded under name.
func (e *Envelope) Value(name string) (string, error) {
	p, err := e.First(name)
	if err != nil {
		return "", err
	}
	return p.Value, nil
}

// Attr returns an attribute of the first entry recorded under name.
func (e *Envelope) Attr(name, key string) (string, error) {
	p, err := e.First(name)
	if err != nil {
		return "", err
	}
	v, err := p.Attr(key)
	if err != nil {
		return "", fmt.Errorf("%w in %q", err, name)
	}
	return v, nil
}

type xmlElement struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlChild `xml:",any"`
}

type xmlChild struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
}

// ParseEnvelope converts a raw API response into an Envelope. A well-formed
// document whose root is not <result> yields a nil envelope and a nil error.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var root xmlElement
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := checkTrailing(dec); err != nil {
		return nil, err
	}

	if root.XMLName.Local != resultTag {
		return nil, nil
	}

	env := &Envelope{
		Result: attrMap(root.Attrs),
		Params: make(map[string][]Param),
	}

	for _, child := range root.Children {
		name := child.XMLName.Local
		if _, seen := env.Params[name]; !seen {
			env.Names = append(env.Names, name)
		}
		env.Params[name] = append(env.Params[name], Param{
			Value:      child.Text,
			Attributes: attrMap(child.Attrs),
		})
	}

	return env, nil
}

// checkTrailing consumes the rest of the document. Only whitespace, comments
// and processing instructions may follow the root element.
func checkTrailing(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("%w: junk after document element", ErrMalformedResponse)
			}
		case xml.Comment, xml.ProcInst:
		default:
			return fmt.Errorf("%w: junk after document element", ErrMalformedResponse)
		}
	}
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name.Local] = a.Value
	}
	return m
}

// charsetReader lets documents declare a non UTF-8 encoding such as ISO-8859-1.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
