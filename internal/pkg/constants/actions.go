package constants

// Privileged actions checked against ActionRoles. Every mutation path goes
// through CanPerform with one of these tags; the same tags are written to the
// audit trail.
const (
	SubmitListing      = "submit_listing"
	ApproveListing     = "approve_listing"
	RejectListing      = "reject_listing"
	MarkListingSold    = "mark_listing_sold"
	DeleteListing      = "delete_listing"
	ConfirmPayment     = "confirm_payment"
	RejectPayment      = "reject_payment"
	ApproveApplication = "approve_application"
	RejectApplication  = "reject_application"
	DeleteApplications = "delete_applications"
	AssignRole         = "assign_role"
	RemoveAccount      = "remove_account"
	ViewAllListings    = "view_all_listings"
	ViewAllPayments    = "view_all_payments"
	ViewAudit          = "view_audit"
)

// ActionRoles maps each privileged action to the roles allowed to perform it.
// MarkListingSold additionally allows the listing owner; that ownership check
// lives in the moderation service since it needs the row.
var ActionRoles = map[string][]string{
	SubmitListing:      {User, Broker, Admin},
	ApproveListing:     {Admin},
	RejectListing:      {Admin},
	MarkListingSold:    {User, Broker, Admin},
	DeleteListing:      {Admin},
	ConfirmPayment:     {Admin},
	RejectPayment:      {Admin},
	ApproveApplication: {Admin},
	RejectApplication:  {Admin},
	DeleteApplications: {Admin},
	AssignRole:         {Admin},
	RemoveAccount:      {Admin},
	ViewAllListings:    {Admin},
	ViewAllPayments:    {Admin},
	ViewAudit:          {Admin},
}

// CanPerform returns true if role is allowed to perform the action.
func CanPerform(role, action string) bool {
	roles, ok := ActionRoles[action]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
