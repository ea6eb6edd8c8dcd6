// Package codec defines how OData payloads are turned into raw property
// values and back. Implementations live in sub packages.
package codec

// Value is a property value as it appeared on the wire, before coercion to
// the type declared in metadata.
type Value struct {
	Text string
	// Type is the type annotation sent by the service, if any
	Type string
	Null bool
}

// Record is the decoded form of one entity in a response body.
type Record struct {
	ID     string
	ETag   string
	Values map[string]Value
	// Order lists the property names in the order the service sent them
	Order []string
}

type ErrorDetail struct {
	Code    string
	Message string
}

type Property struct {
	Name  string
	Type  string
	Value Value
}

// Entry is what gets encoded as a request body for create and update.
type Entry struct {
	ID         string
	TypeName   string
	Properties []Property
}

type Codec interface {
	ContentType() string
	DecodeCollection(body []byte) ([]Record, error)
	DecodeError(body []byte) (ErrorDetail, error)
	EncodeEntity(entry Entry) ([]byte, error)
}
