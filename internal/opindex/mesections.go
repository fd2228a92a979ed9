package opindex

// meResource is the coarse tag the description puts on every /me operation.
const meResource = "Me"

type meSubSection struct {
	name      string
	sectionID string
	paths     []string
}

// meSubSections maps /me paths to the navigable sub-resource they belong to.
// The first match wins, so a path listed twice stays with the earlier entry.
var meSubSections = []meSubSection{
	{name: "Me", sectionID: "MeAndMyStuff", paths: []string{"/me", "/me/register", "/me/password"}},
	{name: "My Sellers", sectionID: "MeAndMyStuff", paths: []string{"/me/sellers"}},
	{name: "My Cost Centers", sectionID: "MeAndMyStuff", paths: []string{"/me/costcenters"}},
	{name: "My User Groups", sectionID: "MeAndMyStuff", paths: []string{"/me/usergroups"}},
	{name: "My Addresses", sectionID: "MeAndMyStuff", paths: []string{"/me/addresses", "/me/addresses/{addressID}"}},
	{name: "My Credit Cards", sectionID: "MeAndMyStuff", paths: []string{"/me/creditcards", "/me/creditcards/{creditcardID}"}},
	{name: "My Categories", sectionID: "MeAndMyStuff", paths: []string{"/me/categories", "/me/categories/{categoryID}"}},
	{name: "My Products", sectionID: "MeAndMyStuff", paths: []string{
		"/me/products",
		"/me/products/{productID}",
		"/me/products/{productID}/specs",
		"/me/products/{productID}/specs/{specID}",
		"/me/products/{productID}/variants",
		"/me/products/{productID}/variants/{variantID}",
	}},
	{name: "My Product Collections", sectionID: "MeAndMyStuff", paths: []string{
		"/me/productcollections",
		"/me/productcollections/{productCollectionID}",
		"/me/productcollections/{productCollectionID}/products",
		"/me/productcollections/{productCollectionID}/{productID}",
	}},
	{name: "My Variants", sectionID: "MeAndMyStuff", paths: []string{"/me/products/{productID}/variants", "/me/products/{productID}/variants/{variantID}"}},
	{name: "My Orders", sectionID: "MeAndMyStuff", paths: []string{"/me/orders", "/me/orders/approvable"}},
	{name: "My Promotions", sectionID: "MeAndMyStuff", paths: []string{"/me/promotions", "/me/promotions/{promotionID}"}},
	{name: "My Spending Accounts", sectionID: "MeAndMyStuff", paths: []string{"/me/spendingAccounts", "/me/spendingaccounts/{spendingAccountID}"}},
	{name: "My Shipments", sectionID: "MeAndMyStuff", paths: []string{"/me/shipments", "/me/shipments/{shipmentID}", "/me/shipments/{shipmentID}/items"}},
	{name: "My Catalogs", sectionID: "MeAndMyStuff", paths: []string{"/me/catalogs", "/me/catalogs/{catalogID}"}},
}

var meSubSectionByPath = func() map[string]string {
	m := make(map[string]string)
	for _, sec := range meSubSections {
		for _, p := range sec.paths {
			if _, taken := m[p]; !taken {
				m[p] = sec.name
			}
		}
	}
	return m
}()

// SubSectionName returns the Me sub-resource that owns path, or "".
func SubSectionName(path string) string {
	return meSubSectionByPath[path]
}
