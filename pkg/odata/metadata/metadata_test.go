package metadata

import (
	"errors"
	"strings"
	"testing"

	odataerrors "github.com/diwise/odata-client/pkg/odata/errors"
	"github.com/diwise/odata-client/pkg/odata/test"
	"github.com/matryer/is"
)

func TestParseNAVMetadata(t *testing.T) {
	is := is.New(t)

	m, err := Parse(strings.NewReader(test.EdmxMSDynamicsNAV))
	is.NoErr(err)

	is.Equal(m.EntitySetNames(), []string{"Customer", "Item_Ledger_Entry", "SalesOrder"})

	customers, err := m.EntitySet("Customer")
	is.NoErr(err)
	is.Equal(customers.Path, "Customer")
	is.Equal(customers.EntityType.QualifiedName(), "NAV.Customer")
	is.Equal(customers.EntityType.Key(), []string{"No"})

	no, ok := customers.EntityType.Property("No")
	is.True(ok)
	is.Equal(no.Type, EdmString)
	is.True(!no.Nullable)

	address, ok := customers.EntityType.Property("Address")
	is.True(ok)
	is.True(address.Nullable)
}

func TestCompositeKeyKeepsDeclaredOrder(t *testing.T) {
	is := is.New(t)

	m, err := Parse(strings.NewReader(test.EdmxMSDynamicsNAV))
	is.NoErr(err)

	orders, err := m.EntitySet("SalesOrder")
	is.NoErr(err)
	is.Equal(orders.EntityType.Key(), []string{"Document_Type", "No"})
	is.True(orders.EntityType.IsKey("No"))
	is.True(!orders.EntityType.IsKey("Amount"))
}

func TestUnknownEntitySet(t *testing.T) {
	is := is.New(t)

	m, err := Parse(strings.NewReader(test.EdmxMSDynamicsNAV))
	is.NoErr(err)

	_, err = m.EntitySet("Vendor")
	is.True(errors.Is(err, odataerrors.ErrUnknownEntitySet))
}

func TestNullableDefaultsToTrue(t *testing.T) {
	is := is.New(t)

	m, err := Parse(strings.NewReader(wrapSchema(`
		<EntityType Name="Note">
			<Key><PropertyRef Name="Id" /></Key>
			<Property Name="Id" Type="Edm.Int32" Nullable="false" />
			<Property Name="Text" Type="Edm.String" />
		</EntityType>
		<EntityContainer Name="C"><EntitySet Name="Notes" EntityType="Test.Note" /></EntityContainer>`)))
	is.NoErr(err)

	et, ok := m.EntityType("Note")
	is.True(ok)

	text, _ := et.Property("Text")
	is.True(text.Nullable)
}

func TestDerivedTypeInheritsKeyAndProperties(t *testing.T) {
	is := is.New(t)

	m, err := Parse(strings.NewReader(wrapSchema(`
		<EntityType Name="Derived" BaseType="T.Base">
			<Property Name="Extra" Type="Edm.String" />
		</EntityType>
		<EntityType Name="Base" Abstract="true">
			<Key><PropertyRef Name="Id" /></Key>
			<Property Name="Id" Type="Edm.Guid" Nullable="false" />
			<Property Name="Total" Type="T.Money" />
		</EntityType>
		<ComplexType Name="Money">
			<Property Name="Amount" Type="Edm.Decimal" />
		</ComplexType>
		<EntityContainer Name="C"><EntitySet Name="Things" EntityType="T.Derived" /></EntityContainer>`)))
	is.NoErr(err)

	things, err := m.EntitySet("Things")
	is.NoErr(err)

	et := things.EntityType
	is.Equal(et.Key(), []string{"Id"})
	is.Equal(len(et.Properties()), 3)
	is.Equal(et.Properties()[0].Name, "Id")
	is.Equal(et.Properties()[2].Name, "Extra")

	total, _ := et.Property("Total")
	is.True(total.Complex)
	is.Equal(total.Type, "Test.Money")
}

func TestPropertyTypesAreTrimmedAndResolved(t *testing.T) {
	is := is.New(t)

	m, err := Parse(strings.NewReader(wrapSchema(`
		<EntityType Name="Order">
			<Key><PropertyRef Name="No" /></Key>
			<Property Name="No" Type=" Edm.String " Nullable="false" />
			<Property Name="Totals" Type="Collection(T.Money)" />
		</EntityType>
		<ComplexType Name="Money">
			<Property Name="Amount" Type="Edm.Decimal" />
		</ComplexType>
		<EntityContainer Name="C"><EntitySet Name="Orders" EntityType="T.Order" /></EntityContainer>`)))
	is.NoErr(err)

	orders, _ := m.EntitySet("Orders")

	no, _ := orders.EntityType.Property("No")
	is.Equal(no.Type, EdmString)

	totals, _ := orders.EntityType.Property("Totals")
	is.Equal(totals.Type, "Collection(Test.Money)")
}

func TestParseFailures(t *testing.T) {
	cases := map[string]string{
		"not xml": `this is not xml <`,
		"no schema": `<edmx:Edmx xmlns:edmx="http://schemas.microsoft.com/ado/2007/06/edmx">
			<edmx:DataServices></edmx:DataServices></edmx:Edmx>`,
		"missing type name": wrapSchema(`<EntityType><Key><PropertyRef Name="Id" /></Key><Property Name="Id" Type="Edm.Int32" /></EntityType>`),
		"missing key":       wrapSchema(`<EntityType Name="A"><Property Name="Id" Type="Edm.Int32" /></EntityType>`),
		"empty key":         wrapSchema(`<EntityType Name="A"><Key></Key><Property Name="Id" Type="Edm.Int32" /></EntityType>`),
		"undeclared key":    wrapSchema(`<EntityType Name="A"><Key><PropertyRef Name="Nope" /></Key><Property Name="Id" Type="Edm.Int32" /></EntityType>`),
		"missing prop type": wrapSchema(`<EntityType Name="A"><Key><PropertyRef Name="Id" /></Key><Property Name="Id" /></EntityType>`),
		"misspelled type":   wrapSchema(`<EntityType Name="A"><Key><PropertyRef Name="Id" /></Key><Property Name="Id" Type="Edm.Strnig" /></EntityType>`),
		"unresolved type":   wrapSchema(`<EntityType Name="A"><Key><PropertyRef Name="Id" /></Key><Property Name="Id" Type="Edm.Int32" /><Property Name="X" Type="T.Missing" /></EntityType>`),
		"blank type":        wrapSchema(`<EntityType Name="A"><Key><PropertyRef Name="Id" /></Key><Property Name="Id" Type="   " /></EntityType>`),
		"bad collection":    wrapSchema(`<EntityType Name="A"><Key><PropertyRef Name="Id" /></Key><Property Name="Id" Type="Edm.Int32" /><Property Name="X" Type="Collection(Edm.Nope)" /></EntityType>`),
		"bad nullable":      wrapSchema(`<EntityType Name="A"><Key><PropertyRef Name="Id" /></Key><Property Name="Id" Type="Edm.Int32" Nullable="maybe" /></EntityType>`),
		"unknown base":      wrapSchema(`<EntityType Name="A" BaseType="T.Missing"><Property Name="Id" Type="Edm.Int32" /></EntityType>`),
		"unknown set type": wrapSchema(`<EntityType Name="A"><Key><PropertyRef Name="Id" /></Key><Property Name="Id" Type="Edm.Int32" /></EntityType>
			<EntityContainer Name="C"><EntitySet Name="Bs" EntityType="T.B" /></EntityContainer>`),
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)

			_, err := Parse(strings.NewReader(doc))
			is.True(errors.Is(err, odataerrors.ErrMetadataParse))
		})
	}
}

func wrapSchema(contents string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<edmx:Edmx Version="1.0" xmlns:edmx="http://schemas.microsoft.com/ado/2007/06/edmx">
  <edmx:DataServices>
    <Schema Namespace="Test" Alias="T" xmlns="http://schemas.microsoft.com/ado/2009/11/edm">` + contents + `
    </Schema>
  </edmx:DataServices>
</edmx:Edmx>`
}
