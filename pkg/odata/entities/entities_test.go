package entities

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/diwise/odata-client/pkg/odata/codec"
	"github.com/diwise/odata-client/pkg/odata/codec/atom"
	odataerrors "github.com/diwise/odata-client/pkg/odata/errors"
	"github.com/diwise/odata-client/pkg/odata/metadata"
	"github.com/diwise/odata-client/pkg/odata/test"
	"github.com/google/uuid"
	"github.com/matryer/is"
	"github.com/shopspring/decimal"
)

func TestMaterializeCustomer(t *testing.T) {
	is, registry := testSetup(t)

	customers, err := registry.Kind("Customer")
	is.NoErr(err)

	records, err := atom.New().DecodeCollection([]byte(test.ResultCustomers))
	is.NoErr(err)

	c, err := customers.Materialize(records[0].Values)
	is.NoErr(err)
	is.True(c.Materialized())
	is.Equal(c.State(), Unchanged)

	name, err := c.Get("Name")
	is.NoErr(err)
	is.Equal(name, "Contoso AG")

	city, err := c.Get("City")
	is.NoErr(err)
	is.Equal(city, nil)

	balance, _ := c.Get("Balance_LCY")
	is.Equal(balance.(decimal.Decimal).String(), "1024.55")

	modified, _ := c.Get("Last_Date_Modified")
	is.Equal(modified.(time.Time), time.Date(2016, 4, 6, 0, 0, 0, 0, time.UTC))
	is.Equal(c.String("Last_Date_Modified"), "2016-04-06T00:00:00")

	is.Equal(c.Keys(), []KeyValue{{Name: "No", Type: metadata.EdmString, Value: "10000"}})
	is.Equal(c.Properties()[0].Name, "No")
}

func TestMaterializeIgnoresUndeclaredProperties(t *testing.T) {
	is, registry := testSetup(t)

	kind, _ := registry.Kind("Item_Ledger_Entry")

	e, err := kind.Materialize(map[string]codec.Value{
		"Entry_No":    {Text: "17"},
		"Document_Id": {Text: "8c2b3a4e-8d20-4d8a-9a43-2f0e5d2bb1aa"},
		"Mystery":     {Text: "?"},
	})
	is.NoErr(err)

	no, _ := e.Get("Entry_No")
	is.Equal(no, int64(17))

	id, _ := e.Get("Document_Id")
	is.Equal(id, uuid.MustParse("8c2b3a4e-8d20-4d8a-9a43-2f0e5d2bb1aa"))

	quantity, _ := e.Get("Quantity")
	is.Equal(quantity, nil)

	_, err = e.Get("Mystery")
	is.True(errors.Is(err, odataerrors.ErrUnknownProperty))
}

func TestMaterializeFailsOnMalformedValues(t *testing.T) {
	is, registry := testSetup(t)

	kind, _ := registry.Kind("SalesOrder")

	_, err := kind.Materialize(map[string]codec.Value{
		"Released": {Text: "perhaps"},
	})
	is.True(errors.Is(err, odataerrors.ErrInvalidValue))
}

func TestSetCoercesToDeclaredType(t *testing.T) {
	is, registry := testSetup(t)

	kind, _ := registry.Kind("SalesOrder")
	order := kind.New()
	is.True(!order.Materialized())

	is.NoErr(order.Set("Document_Type", "Order"))
	is.NoErr(order.Set("No", 1600013))
	is.NoErr(order.Set("Amount", 12.5))
	is.NoErr(order.Set("Released", "true"))

	no, _ := order.Get("No")
	is.Equal(no, "1600013")

	amount, _ := order.Get("Amount")
	is.Equal(amount.(decimal.Decimal).String(), "12.5")

	released, _ := order.Get("Released")
	is.Equal(released, true)

	err := order.Set("Amount", "twelve")
	is.True(errors.Is(err, odataerrors.ErrInvalidValue))

	err = order.Set("Colour", "red")
	is.True(errors.Is(err, odataerrors.ErrUnknownProperty))
}

func TestNilIsOnlyAcceptedForNullableProperties(t *testing.T) {
	is, registry := testSetup(t)

	kind, _ := registry.Kind("Customer")
	c := kind.New()

	is.NoErr(c.Set("City", nil))

	err := c.Set("No", nil)
	is.True(errors.Is(err, odataerrors.ErrInvalidValue))
}

func TestKeysOfMaterializedEntitiesAreImmutable(t *testing.T) {
	is, registry := testSetup(t)

	kind, _ := registry.Kind("Customer")
	c, err := kind.Materialize(map[string]codec.Value{"No": {Text: "10000"}})
	is.NoErr(err)

	err = c.Set("No", "20000")
	is.True(errors.Is(err, odataerrors.ErrImmutableKey))

	is.NoErr(c.Set("Name", "Fabrikam"))

	fresh := kind.New()
	is.NoErr(fresh.Set("No", "30000"))
}

func TestEntryContainsAssignedProperties(t *testing.T) {
	is, registry := testSetup(t)

	kind, _ := registry.Kind("Customer")
	c := kind.New()
	is.NoErr(c.Set("No", "40000"))
	is.NoErr(c.Set("Balance_LCY", "10.10"))
	is.NoErr(c.Set("City", nil))

	entry := c.Entry("")
	is.Equal(entry.TypeName, "NAV.Customer")
	is.Equal(len(entry.Properties), 3)
	is.Equal(entry.Properties[0].Name, "No")
	is.Equal(entry.Properties[1].Name, "City")
	is.True(entry.Properties[1].Value.Null)
	is.Equal(entry.Properties[2].Value.Text, "10.1")
}

func TestRefreshReplacesValues(t *testing.T) {
	is, registry := testSetup(t)

	kind, _ := registry.Kind("Customer")
	c := kind.New()
	is.NoErr(c.Set("No", "10000"))
	is.NoErr(c.Set("Name", "Old name"))

	is.NoErr(c.Refresh(map[string]codec.Value{"Name": {Text: "Contoso AG"}}))
	is.True(c.Materialized())
	is.Equal(c.String("Name"), "Contoso AG")
	is.Equal(c.String("No"), "10000")
}

func TestMarshalJSONIncludesETag(t *testing.T) {
	is, registry := testSetup(t)

	kind, _ := registry.Kind("Customer")
	c, _ := kind.Materialize(map[string]codec.Value{"No": {Text: "10000"}})
	c.SetETag(test.CustomerETag)

	b, err := c.MarshalJSON()
	is.NoErr(err)
	is.True(strings.Contains(string(b), `"No":"10000"`))
	is.True(strings.Contains(string(b), `"@odata.etag"`))
}

func TestRegistryLookups(t *testing.T) {
	is, registry := testSetup(t)

	_, err := registry.Kind("Vendor")
	is.True(errors.Is(err, odataerrors.ErrUnknownEntitySet))

	registry.Close()

	_, err = registry.Kind("Customer")
	is.True(errors.Is(err, odataerrors.ErrRegistryClosed))
}

func TestRegistriesAreIndependent(t *testing.T) {
	is, first := testSetup(t)
	_, second := testSetup(t)

	first.Close()

	_, err := second.Kind("Customer")
	is.NoErr(err)
}

func TestFormatKeyLiteral(t *testing.T) {
	is := is.New(t)

	str := metadata.Property{Name: "No", Type: metadata.EdmString}

	cases := []struct {
		p        metadata.Property
		v        any
		expected string
	}{
		{str, "10000", "'10000'"},
		{str, 10000, "'10000'"},
		{str, "O'Brien", "'O%27%27Brien'"},
		{str, "a b/c", "'a%20b%2Fc'"},
		{metadata.Property{Type: metadata.EdmInt32}, "42", "42"},
		{metadata.Property{Type: metadata.EdmInt64}, 42, "42L"},
		{metadata.Property{Type: metadata.EdmBoolean}, true, "true"},
		{metadata.Property{Type: metadata.EdmDecimal}, "1.50", "1.5M"},
		{metadata.Property{Type: metadata.EdmGuid}, "8c2b3a4e-8d20-4d8a-9a43-2f0e5d2bb1aa", "guid'8c2b3a4e-8d20-4d8a-9a43-2f0e5d2bb1aa'"},
		{metadata.Property{Type: metadata.EdmDateTime}, time.Date(2016, 4, 6, 12, 30, 0, 0, time.UTC), "datetime'2016-04-06T12:30:00'"},
	}

	for _, tc := range cases {
		literal, err := FormatKeyLiteral(tc.p, tc.v)
		is.NoErr(err)
		is.Equal(literal, tc.expected)
	}

	_, err := FormatKeyLiteral(metadata.Property{Type: metadata.EdmInt32}, "abc")
	is.True(errors.Is(err, odataerrors.ErrInvalidKey))

	_, err = FormatKeyLiteral(str, nil)
	is.True(errors.Is(err, odataerrors.ErrInvalidKey))
}

func TestCoerceIntegerRanges(t *testing.T) {
	is := is.New(t)

	_, err := Coerce(metadata.Property{Name: "b", Type: metadata.EdmByte}, 256)
	is.True(errors.Is(err, odataerrors.ErrInvalidValue))

	_, err = Coerce(metadata.Property{Name: "i", Type: metadata.EdmInt32}, 1.5)
	is.True(errors.Is(err, odataerrors.ErrInvalidValue))

	v, err := Coerce(metadata.Property{Name: "i", Type: metadata.EdmInt16}, float64(12))
	is.NoErr(err)
	is.Equal(v, int64(12))
}

func TestBinaryValuesAreBase64OnTheWire(t *testing.T) {
	is := is.New(t)

	p := metadata.Property{Name: "Picture", Type: metadata.EdmBinary, Nullable: true}

	v, err := FromWire(p, codec.Value{Text: "aGVsbG8="})
	is.NoErr(err)
	is.Equal(v, []byte("hello"))
	is.Equal(ToWire(p, v).Text, "aGVsbG8=")
}

func TestDateTimeWithOffsetKeepsItsInstant(t *testing.T) {
	is := is.New(t)

	p := metadata.Property{Name: "Last_Date_Modified", Type: metadata.EdmDateTime, Nullable: true}

	v, err := FromWire(p, codec.Value{Text: "2015-06-03T10:00:00+02:00"})
	is.NoErr(err)
	is.Equal(ToWire(p, v).Text, "2015-06-03T08:00:00")

	back, err := FromWire(p, ToWire(p, v))
	is.NoErr(err)
	is.True(back.(time.Time).Equal(v.(time.Time)))

	noon := time.Date(2020, 1, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	is.Equal(ToWire(p, noon).Text, "2020-01-01T11:00:00")
}

func testSetup(t *testing.T) (*is.I, *Registry) {
	is := is.New(t)

	model, err := metadata.Parse(strings.NewReader(test.EdmxMSDynamicsNAV))
	is.NoErr(err)

	return is, NewRegistry(model)
}
