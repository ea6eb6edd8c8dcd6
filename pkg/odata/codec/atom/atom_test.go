package atom

import (
	"strings"
	"testing"

	"github.com/diwise/odata-client/pkg/odata/codec"
	"github.com/diwise/odata-client/pkg/odata/test"
	"github.com/matryer/is"
)

func TestDecodeFeed(t *testing.T) {
	is := is.New(t)

	records, err := New().DecodeCollection([]byte(test.ResultCustomers))
	is.NoErr(err)
	is.Equal(len(records), 2)

	first := records[0]
	is.Equal(first.ID, "http://test.com/NAV-WEB/OData/Customer('10000')")
	is.Equal(first.ETag, test.CustomerETag)
	is.Equal(first.Values["Name"].Text, "Contoso AG")
	is.Equal(first.Values["Balance_LCY"].Type, "Edm.Decimal")
	is.True(first.Values["City"].Null)
	is.Equal(first.Order[0], "No")

	is.Equal(records[1].Values["No"].Text, "20000")
	is.True(records[1].Values["Address"].Null)
}

func TestDecodeSingleEntry(t *testing.T) {
	is := is.New(t)

	records, err := New().DecodeCollection([]byte(test.ResultSalesOrder))
	is.NoErr(err)
	is.Equal(len(records), 1)
	is.Equal(records[0].ETag, test.SalesOrderETag)
	is.Equal(records[0].Values["No"].Text, "AB-1600013")
	is.Equal(records[0].Values["Document_Type"].Text, "Order")
}

func TestDecodeEmptyFeed(t *testing.T) {
	is := is.New(t)

	records, err := New().DecodeCollection([]byte(test.ResultItemLedgerEntries))
	is.NoErr(err)
	is.Equal(len(records), 0)
}

func TestDecodeEmptyBody(t *testing.T) {
	is := is.New(t)

	records, err := New().DecodeCollection([]byte("  "))
	is.NoErr(err)
	is.Equal(len(records), 0)
}

func TestDecodeRejectsUnknownDocuments(t *testing.T) {
	is := is.New(t)

	_, err := New().DecodeCollection([]byte(test.ResultCustomerError))
	is.True(err != nil)

	_, err = New().DecodeCollection([]byte(`{"value":[]}`))
	is.True(err != nil)
}

func TestDecodeComplexValueKeepsInnerXML(t *testing.T) {
	is := is.New(t)

	doc := `<entry xmlns="http://www.w3.org/2005/Atom" xmlns:d="http://schemas.microsoft.com/ado/2007/08/dataservices" xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata">
	<content type="application/xml"><m:properties>
		<d:Address m:type="NAV.Address"><d:Street>Main</d:Street></d:Address>
	</m:properties></content></entry>`

	records, err := New().DecodeCollection([]byte(doc))
	is.NoErr(err)
	is.Equal(records[0].Values["Address"].Text, "<d:Street>Main</d:Street>")
}

func TestDecodeKeepsCharacterDataOfScalars(t *testing.T) {
	is := is.New(t)

	doc := `<entry xmlns="http://www.w3.org/2005/Atom" xmlns:d="http://schemas.microsoft.com/ado/2007/08/dataservices" xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata">
	<content type="application/xml"><m:properties>
		<d:Name><![CDATA[a<b]]></d:Name>
		<d:Note>x<!-- c --></d:Note>
	</m:properties></content></entry>`

	records, err := New().DecodeCollection([]byte(doc))
	is.NoErr(err)
	is.Equal(records[0].Values["Name"].Text, "a<b")
	is.Equal(records[0].Values["Note"].Text, "x")
}

func TestDecodeError(t *testing.T) {
	is := is.New(t)

	detail, err := New().DecodeError([]byte(test.ResultUpdateErrorETag))
	is.NoErr(err)
	is.Equal(detail.Code, "Microsoft.Dynamics.Nav.Service.WebServices.ServiceBrokerException")
	is.True(strings.Contains(detail.Message, "client concurrency token"))

	detail, err = New().DecodeError([]byte(test.ResultCustomerError))
	is.NoErr(err)
	is.Equal(detail.Code, "")
	is.Equal(detail.Message, "Bad Request - Error in query syntax.")

	_, err = New().DecodeError([]byte("<html><body>oops</body></html>"))
	is.True(err != nil)
}

func TestEncodeEntityDecodesBack(t *testing.T) {
	is := is.New(t)

	c := New()

	body, err := c.EncodeEntity(codec.Entry{
		ID:       "http://test.com/NAV-WEB/OData/Customer('10000')",
		TypeName: "NAV.Customer",
		Properties: []codec.Property{
			{Name: "No", Type: "Edm.String", Value: codec.Value{Text: "10000"}},
			{Name: "Name", Type: "Edm.String", Value: codec.Value{Text: "Smith & <Sons>"}},
			{Name: "City", Type: "Edm.String", Value: codec.Value{Null: true}},
			{Name: "Balance_LCY", Type: "Edm.Decimal", Value: codec.Value{Text: "12.50"}},
		},
	})
	is.NoErr(err)
	is.True(strings.Contains(string(body), `<d:Balance_LCY m:type="Edm.Decimal">12.50</d:Balance_LCY>`))
	is.True(strings.Contains(string(body), `<d:City m:null="true" />`))
	is.True(strings.Contains(string(body), `term="NAV.Customer"`))

	records, err := c.DecodeCollection(body)
	is.NoErr(err)
	is.Equal(records[0].Values["Name"].Text, "Smith & <Sons>")
	is.True(records[0].Values["City"].Null)
	is.Equal(records[0].Order, []string{"No", "Name", "City", "Balance_LCY"})
}

func TestEncodeEntityRejectsBadPropertyNames(t *testing.T) {
	is := is.New(t)

	_, err := New().EncodeEntity(codec.Entry{
		Properties: []codec.Property{{Name: "a b"}},
	})
	is.True(err != nil)
}
