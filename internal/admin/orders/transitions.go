package orders

import (
	"github.com/songviet/po-admin/internal/admin/rbac"
)

// transitionRule allows moving from one status type to a set of others.
type transitionRule struct {
	from StatusType
	to   []StatusType
}

// transitionPolicy grants rules to actors matching a role or department.
// Policies are evaluated in order and only the first match contributes, so a
// Sales user in the Cung ứng department gets the Sales rules.
type transitionPolicy struct {
	roles       []string
	departments []string
	rules       []transitionRule
}

func (p transitionPolicy) matches(actor rbac.Actor) bool {
	for _, role := range p.roles {
		if actor.Role == role {
			return true
		}
	}
	for _, dept := range p.departments {
		if actor.Department == dept {
			return true
		}
	}
	return false
}

var transitionPolicies = []transitionPolicy{
	{
		// Sales can resubmit orders that came back to them.
		roles: []string{rbac.RoleSales},
		rules: []transitionRule{
			{from: StatusNew, to: []StatusType{StatusNew}},
			{from: StatusReceived, to: []StatusType{StatusNew}},
			{from: StatusReturned, to: []StatusType{StatusNew}},
		},
	},
	{
		// Procurement settles, returns, and walks orders through fulfilment.
		roles:       []string{rbac.RoleSupply},
		departments: []string{rbac.DeptSupply, rbac.DeptAdminSouth},
		rules: []transitionRule{
			{from: StatusNew, to: []StatusType{StatusSettled, StatusReturned}},
			{from: StatusMergedDraft, to: []StatusType{StatusPendingApproval}},
			{from: StatusApproved, to: []StatusType{StatusOrdering}},
			{from: StatusOrdering, to: []StatusType{StatusCompleted}},
		},
	},
	{
		// Leaders approve or reject pending orders.
		roles: []string{rbac.RoleLeader},
		rules: []transitionRule{
			{from: StatusPendingApproval, to: []StatusType{StatusApproved, StatusRejected}},
		},
	},
}

// AvailableTransitions returns the catalog rows the actor may move the order
// into. A nil order means a new one is being created, which only ever starts
// in the new status. Administrators see the whole catalog. Everyone else
// keeps the current status selectable plus whatever their first matching
// policy grants for it.
func AvailableTransitions(catalog []StatusDescriptor, order *Order, actor rbac.Actor) []StatusDescriptor {
	if len(catalog) == 0 {
		return nil
	}
	if order == nil {
		return filterByTypes(catalog, map[StatusType]bool{StatusNew: true})
	}
	if rbac.IsAdministrator(actor) {
		out := make([]StatusDescriptor, len(catalog))
		copy(out, catalog)
		return out
	}

	allowed := map[StatusType]bool{order.Status: true}
	for _, policy := range transitionPolicies {
		if !policy.matches(actor) {
			continue
		}
		for _, rule := range policy.rules {
			if rule.from == order.Status {
				for _, to := range rule.to {
					allowed[to] = true
				}
			}
		}
		break
	}
	return filterByTypes(catalog, allowed)
}

func filterByTypes(catalog []StatusDescriptor, allowed map[StatusType]bool) []StatusDescriptor {
	var out []StatusDescriptor
	for _, desc := range catalog {
		if allowed[desc.Type] {
			out = append(out, desc)
		}
	}
	return out
}

// TransitionNeedsReason reports whether picking the status should prompt the
// user for a note explaining it.
func TransitionNeedsReason(t StatusType) bool {
	return t == StatusRejected || t == StatusCancelled
}

// CanEditDetails reports whether the order's supplier, dates, and line items
// are editable. Only brand-new drafts and returned orders reopen for edits.
func CanEditDetails(order *Order, readOnly bool) bool {
	if readOnly {
		return false
	}
	if order == nil {
		return true
	}
	return order.Status == StatusNew || order.Status == StatusReturned
}
