package bot

import "github.com/m3rciful/keyshop/core/telegram/state"

// Product form steps.
const (
	StateProductName        state.State = "admin:product:name"
	StateProductDescription state.State = "admin:product:description"
	StateProductCategory    state.State = "admin:product:category"
	StateProductPrice       state.State = "admin:product:price"
	StateProductImage       state.State = "admin:product:image"
)

// Key form steps.
const (
	StateKeyName   state.State = "admin:key:name"
	StateKeyType   state.State = "admin:key:type"
	StateKeyValue  state.State = "admin:key:value"
	StateKeyExpiry state.State = "admin:key:expiry"
)

// Single-input admin steps.
const (
	StateCategoryName   state.State = "admin:category:name"
	StateKeyEditValue   state.State = "admin:key_edit:value"
	StateBannerImage    state.State = "admin:banner:image"
	StatePaymentCaption state.State = "admin:payment:caption"
)

// User steps.
const (
	StateAwaitScreenshot state.State = "user:payment:screenshot"
)

// Scratch record fields shared between callbacks and form steps.
const (
	fieldProductID   = "product_id"
	fieldCategoryID  = "category_id"
	fieldKeyFlow     = "key_flow"
	fieldEditField   = "edit_field"
	fieldBannerPage  = "banner_page"
	fieldName        = "name"
	fieldDescription = "description"
	fieldPrice       = "price"
	fieldImage       = "image"
	fieldKeyType     = "key_type"
	fieldKeyPayload  = "key_payload"
	fieldKeyExpiry   = "key_expiry"
)

// Key management sub-flows sharing the category/product pick callbacks.
const (
	keyFlowAdd    = "add"
	keyFlowEdit   = "edit"
	keyFlowDelete = "delete"
)
