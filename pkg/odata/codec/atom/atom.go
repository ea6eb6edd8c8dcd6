// Package atom implements the codec for the Atom/XML payload format used by
// OData v2 and v3 services.
package atom

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/diwise/odata-client/pkg/odata/codec"
)

const (
	NamespaceAtom         string = "http://www.w3.org/2005/Atom"
	NamespaceData         string = "http://schemas.microsoft.com/ado/2007/08/dataservices"
	NamespaceMetadata     string = "http://schemas.microsoft.com/ado/2007/08/dataservices/metadata"
	NamespaceSchemeScheme string = "http://schemas.microsoft.com/ado/2007/08/dataservices/scheme"

	ContentType string = "application/atom+xml"
)

type feed struct {
	Entries []entry `xml:"http://www.w3.org/2005/Atom entry"`
}

type entry struct {
	ETag       string      `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata etag,attr"`
	ID         string      `xml:"http://www.w3.org/2005/Atom id"`
	Content    content     `xml:"http://www.w3.org/2005/Atom content"`
	Properties *properties `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata properties"`
}

type content struct {
	Properties *properties `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata properties"`
}

type properties struct {
	Values []value `xml:",any"`
}

type value struct {
	XMLName xml.Name
	Type    string `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata type,attr"`
	Null    string `xml:"http://schemas.microsoft.com/ado/2007/08/dataservices/metadata null,attr"`
	Text    string `xml:",chardata"`
	Inner   string `xml:",innerxml"`
	// child elements, only present for complex values
	Children []struct{} `xml:",any"`
}

type errorDocument struct {
	Code    string `xml:"code"`
	Message string `xml:"message"`
}

type atomCodec struct{}

func New() codec.Codec {
	return &atomCodec{}
}

func (c atomCodec) ContentType() string {
	return ContentType
}

// DecodeCollection accepts either a feed or a single entry document. An empty
// body decodes to no records.
func (c atomCodec) DecodeCollection(body []byte) ([]codec.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []codec.Record{}, nil
	}

	decoder := xml.NewDecoder(bytes.NewReader(body))

	root, err := firstElement(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to decode atom document: %w", err)
	}

	if root.Name.Space != NamespaceAtom {
		return nil, fmt.Errorf("unexpected root element {%s}%s", root.Name.Space, root.Name.Local)
	}

	switch root.Name.Local {
	case "feed":
		f := feed{}
		if err = decoder.DecodeElement(&f, &root); err != nil {
			return nil, fmt.Errorf("failed to decode atom feed: %w", err)
		}

		records := make([]codec.Record, 0, len(f.Entries))
		for _, e := range f.Entries {
			records = append(records, e.record())
		}
		return records, nil
	case "entry":
		e := entry{}
		if err = decoder.DecodeElement(&e, &root); err != nil {
			return nil, fmt.Errorf("failed to decode atom entry: %w", err)
		}
		return []codec.Record{e.record()}, nil
	}

	return nil, fmt.Errorf("unexpected root element %s", root.Name.Local)
}

func (c atomCodec) DecodeError(body []byte) (codec.ErrorDetail, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))

	root, err := firstElement(decoder)
	if err != nil {
		return codec.ErrorDetail{}, fmt.Errorf("failed to decode error document: %w", err)
	}

	if root.Name.Local != "error" {
		return codec.ErrorDetail{}, fmt.Errorf("unexpected root element %s in error document", root.Name.Local)
	}

	doc := errorDocument{}
	if err = decoder.DecodeElement(&doc, &root); err != nil {
		return codec.ErrorDetail{}, fmt.Errorf("failed to decode error document: %w", err)
	}

	return codec.ErrorDetail{
		Code:    strings.TrimSpace(doc.Code),
		Message: strings.TrimSpace(doc.Message),
	}, nil
}

func (c atomCodec) EncodeEntity(e codec.Entry) ([]byte, error) {
	b := &bytes.Buffer{}

	b.WriteString(`<?xml version="1.0" encoding="utf-8" standalone="yes"?>`)
	fmt.Fprintf(b, `<entry xmlns="%s" xmlns:d="%s" xmlns:m="%s">`, NamespaceAtom, NamespaceData, NamespaceMetadata)

	if e.ID != "" {
		b.WriteString("<id>")
		escape(b, e.ID)
		b.WriteString("</id>")
	}

	b.WriteString("<title /><author><name /></author>")

	if e.TypeName != "" {
		b.WriteString(`<category term="`)
		escape(b, e.TypeName)
		fmt.Fprintf(b, `" scheme="%s" />`, NamespaceSchemeScheme)
	}

	b.WriteString(`<content type="application/xml"><m:properties>`)

	for _, p := range e.Properties {
		if strings.ContainsAny(p.Name, "<>&\"' /") || p.Name == "" {
			return nil, fmt.Errorf("invalid property name %q", p.Name)
		}

		b.WriteString("<d:" + p.Name)

		if p.Type != "" && p.Type != "Edm.String" {
			b.WriteString(` m:type="`)
			escape(b, p.Type)
			b.WriteString(`"`)
		}

		if p.Value.Null {
			b.WriteString(` m:null="true" />`)
			continue
		}

		b.WriteString(">")
		if isEmbeddedXML(p) {
			b.WriteString(p.Value.Text)
		} else {
			escape(b, p.Value.Text)
		}
		b.WriteString("</d:" + p.Name + ">")
	}

	b.WriteString("</m:properties></content></entry>")

	return b.Bytes(), nil
}

func (e entry) record() codec.Record {
	r := codec.Record{
		ID:     strings.TrimSpace(e.ID),
		ETag:   e.ETag,
		Values: map[string]codec.Value{},
	}

	props := e.Content.Properties
	if props == nil {
		// media link entries carry their properties outside of content
		props = e.Properties
	}

	if props == nil {
		return r
	}

	for _, v := range props.Values {
		name := v.XMLName.Local

		val := codec.Value{
			Text: v.Text,
			Type: v.Type,
			Null: v.Null == "true",
		}

		if len(v.Children) > 0 {
			val.Text = strings.TrimSpace(v.Inner)
		}

		if _, dup := r.Values[name]; !dup {
			r.Order = append(r.Order, name)
		}
		r.Values[name] = val
	}

	return r
}

// complex values are passed through as the inner xml they were decoded from
func isEmbeddedXML(p codec.Property) bool {
	return !strings.HasPrefix(p.Type, "Edm.") && strings.HasPrefix(p.Value.Text, "<")
}

func escape(w io.Writer, s string) {
	xml.EscapeText(w, []byte(s))
}

func firstElement(decoder *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := decoder.Token()
		if err != nil {
			return xml.StartElement{}, err
		}

		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}
