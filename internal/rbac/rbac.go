package rbac

// Role constants mirror models roles.
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
)

// Permission constants
const (
	PermCreateProject    = "create_project"
	PermPlaceBid         = "place_bid"
	PermAcceptBid        = "accept_bid"
	PermRejectBid        = "reject_bid"
	PermCreateMilestone  = "create_milestone"
	PermUpdateMilestone  = "update_milestone"
	PermDeposit          = "deposit"
	PermWithdraw         = "withdraw"
	PermCompleteContract = "complete_contract"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleClient: {
		PermCreateProject, PermAcceptBid, PermRejectBid,
		PermCreateMilestone, PermUpdateMilestone,
		PermDeposit, PermWithdraw, PermCompleteContract,
	},
	RoleFreelancer: {
		PermPlaceBid, PermUpdateMilestone, PermWithdraw,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}
