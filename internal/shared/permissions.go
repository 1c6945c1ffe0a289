package shared

// Platform permissions. Role-to-permission bindings live in internal/rbac.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermLeadsView = "leads.view"
	PermLeadsEdit = "leads.edit"

	PermContactsView = "contacts.view"
	PermContactsEdit = "contacts.edit"

	PermAccountsView = "accounts.view"
	PermAccountsEdit = "accounts.edit"

	PermQuotesView = "quotes.view"
	PermQuotesEdit = "quotes.edit"
	PermQuotesSend = "quotes.send"

	PermWorkOrdersView   = "workorders.view"
	PermWorkOrdersEdit   = "workorders.edit"
	PermWorkOrdersAssign = "workorders.assign"

	PermInvoicesView = "invoices.view"
	PermInvoicesEdit = "invoices.edit"
	PermInvoicesSend = "invoices.send"

	PermDashboardView = "dashboard.view"
)
