package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestReconcileEmitsOverpricedProduct(t *testing.T) {
	results, err := Reconcile(
		[]LinkMapping{{Link: "A", Barcode: "B1"}},
		[]Listing{{Link: "A", Name: "Elbise", NormalPrice: "1000"}},
		[]StorefrontProduct{{ExternalKey: "B1", Barcode: "869000001", Price: "990"}},
	)

	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "Elbise", r.ProductName)
	assert.Equal(t, "B1", r.TrendyolKey)
	assert.Equal(t, "869000001", r.Barcode)
	assert.True(t, r.SitePrice.Equal(dec("990")))
	assert.True(t, r.TrendyolNormalPrice.Equal(dec("1000")))
	assert.True(t, r.NewPrice.Equal(dec("855")), "got %s", r.NewPrice)
}

func TestReconcileSkipsCompetitivePrice(t *testing.T) {
	results, err := Reconcile(
		[]LinkMapping{{Link: "A", Barcode: "B1"}},
		[]Listing{{Link: "A", Name: "Elbise", NormalPrice: "1000"}},
		[]StorefrontProduct{{ExternalKey: "B1", Barcode: "869000001", Price: "900"}},
	)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestReconcileExcludesExactFloor(t *testing.T) {
	results, err := Reconcile(
		[]LinkMapping{{Link: "A", Barcode: "B1"}},
		[]Listing{{Link: "A", Name: "Elbise", NormalPrice: "1.234,00 TL"}},
		[]StorefrontProduct{{ExternalKey: "B1", Barcode: "x", Price: "1172.30"}},
	)

	require.NoError(t, err)
	assert.Empty(t, results, "a storefront price equal to 95%% of normal must be excluded")
}

func TestReconcileTargetIndependentOfSitePrice(t *testing.T) {
	listings := []Listing{
		{Link: "A", Name: "a", NormalPrice: "4.617,50 TL"},
		{Link: "B", Name: "b", NormalPrice: "200"},
	}
	products := []StorefrontProduct{
		{ExternalKey: "KA", Barcode: "1", Price: "9999"},
		{ExternalKey: "KB", Barcode: "2", Price: "191"},
	}
	mappings := []LinkMapping{{Link: "A", Barcode: "KA"}, {Link: "B", Barcode: "KB"}}

	results, err := Reconcile(mappings, listings, products)

	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.NewPrice.Equal(r.TrendyolNormalPrice.Mul(dec("0.855"))))
	}
	assert.Equal(t, "KA", results[0].TrendyolKey)
	assert.Equal(t, "KB", results[1].TrendyolKey)
}

func TestReconcileDropsUnresolvedMappings(t *testing.T) {
	results, err := Reconcile(
		[]LinkMapping{
			{Link: "missing-link", Barcode: "B1"},
			{Link: "A", Barcode: "missing-key"},
			{Link: "A", Barcode: "B1"},
		},
		[]Listing{{Link: "A", Name: "x", NormalPrice: "100"}},
		[]StorefrontProduct{{ExternalKey: "B1", Barcode: "b", Price: "150"}},
	)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "B1", results[0].TrendyolKey)
}

func TestReconcileMissingData(t *testing.T) {
	m := []LinkMapping{{Link: "A", Barcode: "B"}}
	l := []Listing{{Link: "A"}}
	p := []StorefrontProduct{{ExternalKey: "B"}}

	cases := map[string]struct {
		m     []LinkMapping
		l     []Listing
		p     []StorefrontProduct
		table string
	}{
		"mapping":    {nil, l, p, TableLinkMapping},
		"listings":   {m, nil, p, TableMarketplaceListing},
		"storefront": {m, l, nil, TableStorefrontProduct},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Reconcile(tc.m, tc.l, tc.p)
			var missing *MissingDataError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tc.table, missing.Table)
		})
	}
}

func TestReconcileForCatalogPushReturnsAllVariantsOfMatchedProducts(t *testing.T) {
	variants := []CatalogVariant{
		{ProductID: "P1", VariantID: "V1", Barcode: "111", DiscountedPrice: dec("500")},
		{ProductID: "P1", VariantID: "V2", Barcode: "112", DiscountedPrice: dec("100")},
		{ProductID: "P2", VariantID: "V3", Barcode: "221", DiscountedPrice: dec("300")},
		{ProductID: "P3", VariantID: "V4", Barcode: "331", DiscountedPrice: dec("300")},
	}
	listings := []Listing{
		{Link: "L1", Name: "Etek", NormalPrice: "1.000,00 TL", DiscountedPrice: "800,00 TL"},
		{Link: "L3", Name: "Gomlek", NormalPrice: "400", DiscountedPrice: "0"},
	}
	mappings := []LinkMapping{
		{Link: "L1", Barcode: "111"},
		{Link: "L2", Barcode: "221"},
		{Link: "L3", Barcode: "331"},
	}

	results, err := ReconcileForCatalogPush(mappings, listings, variants)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "V1", results[0].VariantID)
	assert.Equal(t, "V2", results[1].VariantID)
	assert.Equal(t, "V4", results[2].VariantID)
	assert.True(t, results[0].NewPrice.Equal(dec("720")))
	assert.True(t, results[1].NewPrice.Equal(dec("720")), "no floor filter even when ikas is cheaper")
	assert.True(t, results[2].NewPrice.IsZero(), "zero prices are still returned")
	assert.Equal(t, "L1", results[1].TrendyolLink)
}

func TestReconcileForCatalogPushMissingData(t *testing.T) {
	_, err := ReconcileForCatalogPush([]LinkMapping{{Link: "a", Barcode: "b"}}, []Listing{{Link: "a"}}, nil)
	var missing *MissingDataError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, TableCatalogVariant, missing.Table)
}
