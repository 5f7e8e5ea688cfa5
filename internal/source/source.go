// Package source decodes SMS backup documents into raw message bodies.
package source

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/WagnerMushayija/momo-summative/internal/blob"
)

// Element and attribute names of the "SMS Backup & Restore" XML format.
const (
	RootElement    = "smses"
	MessageElement = "sms"
	BodyAttribute  = "body"
)

var (
	// ErrMissingRoot is returned for documents without any element.
	ErrMissingRoot = errors.New("missing root element")
	// ErrUnexpectedRoot is returned when the root element is not <smses>.
	ErrUnexpectedRoot = errors.New("unexpected root element")
)

// SourceFormatError means the input is not a readable backup container.
type SourceFormatError struct {
	Source string
	Err    error
}

func (e *SourceFormatError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("source format: %v", e.Err)
	}
	return fmt.Sprintf("source format %s: %v", e.Source, e.Err)
}

func (e *SourceFormatError) Unwrap() error { return e.Err }

// Decode returns the body of every <sms> element in document order. Elements
// nested below the root at any depth are accepted; a missing body attribute
// yields an empty string so positions stay aligned with the document.
func Decode(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		messages []string
		depth    int
		sawRoot  bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &SourceFormatError{Err: err}
		}

		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				if el.Name.Local != RootElement {
					return nil, &SourceFormatError{Err: fmt.Errorf("%w <%s>", ErrUnexpectedRoot, el.Name.Local)}
				}
				sawRoot = true
				continue
			}
			if el.Name.Local == MessageElement {
				messages = append(messages, attr(el, BodyAttribute))
			}
		case xml.EndElement:
			depth--
		}
	}

	if !sawRoot {
		return nil, &SourceFormatError{Err: ErrMissingRoot}
	}
	return messages, nil
}

// Load opens uri (local path or gs://), decodes it and closes it again.
func Load(ctx context.Context, uri string) ([]string, error) {
	rc, err := blob.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	messages, err := Decode(rc)
	if err != nil {
		var sfe *SourceFormatError
		if errors.As(err, &sfe) {
			sfe.Source = uri
		}
		return nil, err
	}
	return messages, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
