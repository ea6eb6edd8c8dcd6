package metadata

// The structs below mirror the parts of an EDMX document that the client
// needs. Tags carry no namespace so that both the v2/v3 (2007/2008/2009 edm)
// and the v4 namespaces decode into the same shape.

type edmx struct {
	DataServices dataServices `xml:"DataServices"`
}

type dataServices struct {
	Schema []schema `xml:"Schema"`
}

type schema struct {
	Namespace       string            `xml:"Namespace,attr"`
	Alias           string            `xml:"Alias,attr"`
	EntityType      []entityType      `xml:"EntityType"`
	ComplexType     []complexType     `xml:"ComplexType"`
	EntityContainer []entityContainer `xml:"EntityContainer"`
}

type entityType struct {
	Name     string     `xml:"Name,attr"`
	BaseType string     `xml:"BaseType,attr"`
	Abstract bool       `xml:"Abstract,attr"`
	Key      *key       `xml:"Key"`
	Property []property `xml:"Property"`
}

type complexType struct {
	Name     string     `xml:"Name,attr"`
	Property []property `xml:"Property"`
}

type key struct {
	PropertyRef []propertyRef `xml:"PropertyRef"`
}

type propertyRef struct {
	Name string `xml:"Name,attr"`
}

type property struct {
	Name     string `xml:"Name,attr"`
	Type     string `xml:"Type,attr"`
	Nullable *bool  `xml:"Nullable,attr"`
}

type entityContainer struct {
	Name      string      `xml:"Name,attr"`
	EntitySet []entitySet `xml:"EntitySet"`
}

type entitySet struct {
	Name       string `xml:"Name,attr"`
	EntityType string `xml:"EntityType,attr"`
}
