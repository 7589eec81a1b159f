package bot

// User-facing strings. Kept in one place so the storefront copy can be
// reviewed without digging through handlers.
const (
	txtWelcomeFallback = "Welcome! Browse the catalog and pay with crypto."
	txtCatalogFallback = "Pick a category:"
	txtCartEmpty       = "Your cart is empty."
	txtAboutFallback   = "Digital key shop. Keys are delivered right here after payment confirmation."
	txtUnknownInput    = "I did not get that. Use the menu below or /start."
	txtUnknownAction   = "Unsupported action"
	txtRateLimited     = "Too fast, try again in a moment."

	txtAddedToCart     = "Added to cart."
	txtOrderPlaced     = "Order #%d placed. Total: %s %s."
	txtPaymentHint     = "Send exactly %s %s (%s) to the wallet below and attach the payment reference to the transfer comment:\n\nWallet: `%s`\nReference: `%s`\n\nPress \"I paid\" after the transfer and send a screenshot of it."
	txtAwaitScreenshot = "Send a screenshot of your payment as a photo."
	txtScreenshotSent  = "Screenshot received. We will confirm your payment shortly."
	txtNoPendingOrder  = "You have no open order. Place one from the cart first."

	txtPaymentConfirmed = "Payment for order #%d confirmed. Your keys are on the way."
	txtOrderCompleted   = "Order #%d completed. Enjoy!"
	txtOrderRejectedMsg = "Order #%d was declined. Contact support if you believe this is a mistake."
	txtKeyCaption       = "Key %q for order #%d"

	txtAdminMenu          = "Admin menu:"
	txtAdminOnly          = "This command is for admins."
	txtOrderSettled       = "Order already settled."
	txtOrderShortfall     = "Not enough keys for product %d: need %d, have %d. Order left open."
	txtNewOrderAlert      = "New order #%d from @%s (%d)\nTotal: %s %s\nReference: %s"
	txtScreenshotAlert    = "Payment screenshot from @%s (%d) for order #%d (%s %s)."
	txtPaymentEditPrompt  = "Send the new payment instruction text."
	txtPaymentEditDone    = "Payment instructions updated."
	txtBannerPickPage     = "Which page banner do you want to change?"
	txtBannerPhotoPrompt  = "Send the new banner photo for %q."
	txtBannerUpdated      = "Banner %q updated."
	txtCategorySaved      = "Category %q created."
	txtDuplicateCategory  = "A category with this name already exists."
	txtProductSaved       = "Product %q saved."
	txtProductDeleted     = "Product deleted."
	txtKeySaved           = "Key %q added. The product now has %d key(s) in stock."
	txtKeyDeleted         = "Key deleted."
	txtKeyEditPrompt      = "Send the new %s (or \"-\" to clear the expiry)."
	txtKeyEdited          = "Key updated."
	txtPickCategory       = "Pick a category:"
	txtPickProduct        = "Pick a product:"
	txtPickKey            = "Pick a key:"
	txtNothingHere        = "Nothing here yet."
	txtDialogCancelled    = "Cancelled."
	txtFormHint           = "Type \"back\" to return one step or \"cancel\" to abort."
	txtAddKeyPipeFormat   = "Usage: /add_key <product_id>|<name>|<value>|<days, date or ->"
	txtDuplicateKeyName   = "A key with this name already exists for the product."
	txtKeyPayloadMismatch = "This key stores the other payload kind; edit the matching field instead."
)

// Form prompts.
const (
	promptCategoryName       = "Enter the category name."
	promptProductName        = "Enter the product name (5-150 characters)."
	promptProductDescription = "Enter the product description (at least 5 characters)."
	promptProductCategory    = "Pick the product category with the buttons below."
	promptProductPrice       = "Enter the price, e.g. 9.99."
	promptProductImage       = "Send the product photo."
	promptKeyName            = "Enter the key name (up to 150 characters)."
	promptKeyType            = "Key payload kind: reply \"text\" or \"file\"."
	promptKeyValue           = "Send the key text (up to 1500 characters) or upload it as a file."
	promptKeyExpiry          = "Validity period in days, an expiry date (e.g. 2026-12-31), or \"-\" for no expiry."
)
