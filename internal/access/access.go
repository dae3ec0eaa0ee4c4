package access

import (
	"github.com/padelhub/storefront/pkg/model"
)

// State is the role state a session is in. Transitions happen only at login
// and logout.
type State string

const (
	StateAnonymous State = "anonymous"
	StateCustomer  State = "customer"
	StateVendor    State = "vendor"
	StateAdmin     State = "admin"
)

// StateOf returns the state for an identity. Unknown roles are customers.
func StateOf(id model.Identity) State {
	switch id.Role {
	case model.RoleAnonymous:
		return StateAnonymous
	case model.RoleAdmin:
		return StateAdmin
	case model.RoleVendor:
		return StateVendor
	default:
		return StateCustomer
	}
}

// SourceKind names where a session's catalog comes from.
type SourceKind string

const (
	SourceFullCatalog  SourceKind = "full"
	SourceVendorSubset SourceKind = "vendor"
)

// DataSource is the catalog a session may see.
type DataSource struct {
	Kind     SourceKind
	VendorID string
}

// FullCatalog is every product.
func FullCatalog() DataSource {
	return DataSource{Kind: SourceFullCatalog}
}

// VendorSubset is the products owned by vendorID.
func VendorSubset(vendorID string) DataSource {
	return DataSource{Kind: SourceVendorSubset, VendorID: vendorID}
}

// SelectDataSource picks the catalog for an identity.
func SelectDataSource(id model.Identity) DataSource {
	if StateOf(id) == StateVendor {
		return VendorSubset(id.ID)
	}
	return FullCatalog()
}

// Action is a navigation entry a role may use.
type Action string

const (
	ActionPublicCatalog   Action = "public_catalog"
	ActionAllProducts     Action = "all_products"
	ActionManageSuppliers Action = "manage_suppliers"
	ActionCreateProduct   Action = "create_product"
	ActionEditProduct     Action = "edit_product"
	ActionDeleteProduct   Action = "delete_product"
	ActionExport          Action = "export"
	ActionDashboard       Action = "dashboard"
)

// Actions is an ordered set of permitted actions.
type Actions []Action

// Allows reports whether a is in the set.
func (as Actions) Allows(a Action) bool {
	for _, x := range as {
		if x == a {
			return true
		}
	}
	return false
}

// SelectNavigation returns the actions for an identity, in menu order.
func SelectNavigation(id model.Identity) Actions {
	switch StateOf(id) {
	case StateAdmin:
		return Actions{
			ActionPublicCatalog,
			ActionAllProducts,
			ActionManageSuppliers,
			ActionCreateProduct,
			ActionEditProduct,
			ActionDeleteProduct,
			ActionExport,
			ActionDashboard,
		}
	case StateVendor:
		return Actions{
			ActionPublicCatalog,
			ActionCreateProduct,
			ActionEditProduct,
			ActionDeleteProduct,
			ActionExport,
			ActionDashboard,
		}
	default:
		return Actions{ActionPublicCatalog}
	}
}
