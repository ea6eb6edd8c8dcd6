package test

// Fixtures modelled on a Microsoft Dynamics NAV OData web service.

const (
	NAVBasePath string = "/NAV-WEB/OData"

	// CustomerETag is the token the service issued for Customer('10000')
	CustomerETag string = `W/"'28%3BEgAAAAJ7BTEAMAAwADAAMAAAAAAA8%3B791241770%3B'"`
	// SalesOrderETag is the token the service issued for the sales order AB-1600013
	SalesOrderETag string = `W/"'36%3BJAAAAACLAQAAAAJ7/0EAQgAtADEANgAwADAAMAAxADMA8%3B791241812%3B'"`
)

const EdmxMSDynamicsNAV string = `<?xml version="1.0" encoding="utf-8"?>
<edmx:Edmx Version="1.0" xmlns:edmx="http://schemas.microsoft.com/ado/2007/06/edmx">
  <edmx:DataServices m:DataServiceVersion="3.0" m:MaxDataServiceVersion="3.0" xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata">
    <Schema Namespace="NAV" xmlns="http://schemas.microsoft.com/ado/2009/11/edm">
      <EntityType Name="Customer">
        <Key>
          <PropertyRef Name="No" />
        </Key>
        <Property Name="No" Type="Edm.String" Nullable="false" />
        <Property Name="Name" Type="Edm.String" Nullable="true" />
        <Property Name="Address" Type="Edm.String" Nullable="true" />
        <Property Name="City" Type="Edm.String" Nullable="true" />
        <Property Name="Blocked" Type="Edm.String" Nullable="true" />
        <Property Name="Balance_LCY" Type="Edm.Decimal" Nullable="true" />
        <Property Name="Credit_Limit_LCY" Type="Edm.Decimal" Nullable="true" />
        <Property Name="Last_Date_Modified" Type="Edm.DateTime" Nullable="true" />
        <Property Name="ETag" Type="Edm.String" Nullable="true" />
      </EntityType>
      <EntityType Name="SalesOrder">
        <Key>
          <PropertyRef Name="Document_Type" />
          <PropertyRef Name="No" />
        </Key>
        <Property Name="Document_Type" Type="Edm.String" Nullable="false" />
        <Property Name="No" Type="Edm.String" Nullable="false" />
        <Property Name="Sell_to_Customer_No" Type="Edm.String" Nullable="true" />
        <Property Name="Sell_to_Customer_Name" Type="Edm.String" Nullable="true" />
        <Property Name="Order_Date" Type="Edm.DateTime" Nullable="true" />
        <Property Name="Amount" Type="Edm.Decimal" Nullable="true" />
        <Property Name="Released" Type="Edm.Boolean" Nullable="true" />
      </EntityType>
      <EntityType Name="Item_Ledger_Entry">
        <Key>
          <PropertyRef Name="Entry_No" />
        </Key>
        <Property Name="Entry_No" Type="Edm.Int32" Nullable="false" />
        <Property Name="Item_No" Type="Edm.String" Nullable="true" />
        <Property Name="Quantity" Type="Edm.Decimal" Nullable="true" />
        <Property Name="Document_Id" Type="Edm.Guid" Nullable="true" />
      </EntityType>
      <EntityContainer Name="NAV" m:IsDefaultEntityContainer="true">
        <EntitySet Name="Customer" EntityType="NAV.Customer" />
        <EntitySet Name="SalesOrder" EntityType="NAV.SalesOrder" />
        <EntitySet Name="Item_Ledger_Entry" EntityType="NAV.Item_Ledger_Entry" />
      </EntityContainer>
    </Schema>
  </edmx:DataServices>
</edmx:Edmx>`

const ResultCustomers string = `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<feed xml:base="http://test.com/NAV-WEB/OData/" xmlns="http://www.w3.org/2005/Atom" xmlns:d="http://schemas.microsoft.com/ado/2007/08/dataservices" xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata">
  <id>http://test.com/NAV-WEB/OData/Customer</id>
  <title type="text">Customer</title>
  <updated>2016-04-11T08:21:15Z</updated>
  <link rel="self" title="Customer" href="Customer" />
  <entry m:etag="W/&quot;'28%3BEgAAAAJ7BTEAMAAwADAAMAAAAAAA8%3B791241770%3B'&quot;">
    <id>http://test.com/NAV-WEB/OData/Customer('10000')</id>
    <category term="NAV.Customer" scheme="http://schemas.microsoft.com/ado/2007/08/dataservices/scheme" />
    <link rel="edit" title="Customer" href="Customer('10000')" />
    <title />
    <updated>2016-04-11T08:21:15Z</updated>
    <author>
      <name />
    </author>
    <content type="application/xml">
      <m:properties>
        <d:No>10000</d:No>
        <d:Name>Contoso AG</d:Name>
        <d:Address>Mainstreet 12</d:Address>
        <d:City m:null="true" />
        <d:Blocked>_blank_</d:Blocked>
        <d:Balance_LCY m:type="Edm.Decimal">1024.55</d:Balance_LCY>
        <d:Credit_Limit_LCY m:type="Edm.Decimal">0</d:Credit_Limit_LCY>
        <d:Last_Date_Modified m:type="Edm.DateTime">2016-04-06T00:00:00</d:Last_Date_Modified>
        <d:ETag>28;EgAAAAJ7BTEAMAAwADAAMAAAAAAA8;791241770;</d:ETag>
      </m:properties>
    </content>
  </entry>
  <entry m:etag="W/&quot;'28%3BEgAAAAJ7BTIAMAAwADAAMAAAAAAA8%3B791241771%3B'&quot;">
    <id>http://test.com/NAV-WEB/OData/Customer('20000')</id>
    <category term="NAV.Customer" scheme="http://schemas.microsoft.com/ado/2007/08/dataservices/scheme" />
    <link rel="edit" title="Customer" href="Customer('20000')" />
    <title />
    <updated>2016-04-11T08:21:15Z</updated>
    <author>
      <name />
    </author>
    <content type="application/xml">
      <m:properties>
        <d:No>20000</d:No>
        <d:Name>Trey Research</d:Name>
        <d:Address m:null="true" />
        <d:City m:null="true" />
        <d:Blocked>_blank_</d:Blocked>
        <d:Balance_LCY m:type="Edm.Decimal">0</d:Balance_LCY>
        <d:Credit_Limit_LCY m:type="Edm.Decimal">0</d:Credit_Limit_LCY>
        <d:Last_Date_Modified m:type="Edm.DateTime" m:null="true" />
        <d:ETag>28;EgAAAAJ7BTIAMAAwADAAMAAAAAAA8;791241771;</d:ETag>
      </m:properties>
    </content>
  </entry>
</feed>`

// ResultCustomer is a single entry document without an m:etag attribute, the
// token is only sent in the response ETag header.
const ResultCustomer string = `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<entry xml:base="http://test.com/NAV-WEB/OData/" xmlns="http://www.w3.org/2005/Atom" xmlns:d="http://schemas.microsoft.com/ado/2007/08/dataservices" xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata">
  <id>http://test.com/NAV-WEB/OData/Customer('10000')</id>
  <category term="NAV.Customer" scheme="http://schemas.microsoft.com/ado/2007/08/dataservices/scheme" />
  <link rel="edit" title="Customer" href="Customer('10000')" />
  <title />
  <updated>2016-04-11T08:21:15Z</updated>
  <author>
    <name />
  </author>
  <content type="application/xml">
    <m:properties>
      <d:No>10000</d:No>
      <d:Name>Contoso AG</d:Name>
      <d:Address>Mainstreet 12</d:Address>
      <d:City m:null="true" />
      <d:Blocked>_blank_</d:Blocked>
      <d:Balance_LCY m:type="Edm.Decimal">1024.55</d:Balance_LCY>
      <d:Credit_Limit_LCY m:type="Edm.Decimal">0</d:Credit_Limit_LCY>
      <d:Last_Date_Modified m:type="Edm.DateTime">2016-04-06T00:00:00</d:Last_Date_Modified>
      <d:ETag>28;EgAAAAJ7BTEAMAAwADAAMAAAAAAA8;791241770;</d:ETag>
    </m:properties>
  </content>
</entry>`

const ResultSalesOrder string = `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<entry xml:base="http://test.com/NAV-WEB/OData/" xmlns="http://www.w3.org/2005/Atom" xmlns:d="http://schemas.microsoft.com/ado/2007/08/dataservices" xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata" m:etag="W/&quot;'36%3BJAAAAACLAQAAAAJ7/0EAQgAtADEANgAwADAAMAAxADMA8%3B791241812%3B'&quot;">
  <id>http://test.com/NAV-WEB/OData/SalesOrder(Document_Type='Order',No='AB-1600013')</id>
  <category term="NAV.SalesOrder" scheme="http://schemas.microsoft.com/ado/2007/08/dataservices/scheme" />
  <link rel="edit" title="SalesOrder" href="SalesOrder(Document_Type='Order',No='AB-1600013')" />
  <title />
  <updated>2016-04-11T08:21:15Z</updated>
  <author>
    <name />
  </author>
  <content type="application/xml">
    <m:properties>
      <d:Document_Type>Order</d:Document_Type>
      <d:No>AB-1600013</d:No>
      <d:Sell_to_Customer_No>10000</d:Sell_to_Customer_No>
      <d:Sell_to_Customer_Name>Contoso AG</d:Sell_to_Customer_Name>
      <d:Order_Date m:type="Edm.DateTime">2016-04-08T00:00:00</d:Order_Date>
      <d:Amount m:type="Edm.Decimal">4200.5</d:Amount>
      <d:Released m:type="Edm.Boolean">false</d:Released>
    </m:properties>
  </content>
</entry>`

const ResultItemLedgerEntries string = `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<feed xml:base="http://test.com/NAV-WEB/OData/" xmlns="http://www.w3.org/2005/Atom" xmlns:d="http://schemas.microsoft.com/ado/2007/08/dataservices" xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata">
  <id>http://test.com/NAV-WEB/OData/Item_Ledger_Entry</id>
  <title type="text">Item_Ledger_Entry</title>
  <updated>2016-04-11T08:21:15Z</updated>
  <link rel="self" title="Item_Ledger_Entry" href="Item_Ledger_Entry" />
</feed>`

const ResultCustomerError string = `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<m:error xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata">
  <m:code />
  <m:message xml:lang="en-US">Bad Request - Error in query syntax.</m:message>
</m:error>`

const ResultUpdateErrorETag string = `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<m:error xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata">
  <m:code>Microsoft.Dynamics.Nav.Service.WebServices.ServiceBrokerException</m:code>
  <m:message xml:lang="en-US">Another user has already changed the record. The client concurrency token does not match the current version.</m:message>
</m:error>`
