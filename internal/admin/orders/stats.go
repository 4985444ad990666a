package orders

import (
	"github.com/songviet/po-admin/internal/admin/rbac"
)

// StatCaption explains what a dashboard counter means for the acting user.
type StatCaption struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// StatCaptions are the role-specific captions for the pending and processing
// counters.
type StatCaptions struct {
	Pending    StatCaption `json:"pending"`
	Processing StatCaption `json:"processing"`
}

// CaptionsFor returns the dashboard captions for the actor's role. The same
// counters mean different work depending on who is looking at them.
func CaptionsFor(actor rbac.Actor) StatCaptions {
	switch actor.Role {
	case rbac.RoleSales:
		return StatCaptions{
			Pending:    StatCaption{Label: "Pending", Description: "Đơn cần hoàn thiện gửi đi"},
			Processing: StatCaption{Label: "Processing", Description: "Đã gửi Cung ứng/Sếp"},
		}
	case rbac.RoleSupply:
		return StatCaptions{
			Pending:    StatCaption{Label: "Pending", Description: "Đơn mới từ Sales hoặc Đã duyệt"},
			Processing: StatCaption{Label: "Processing", Description: "Chờ sếp duyệt hoặc chờ hàng về"},
		}
	case rbac.RoleLeader:
		return StatCaptions{
			Pending:    StatCaption{Label: "Pending", Description: "Đơn cần phê duyệt ngay"},
			Processing: StatCaption{Label: "Processing", Description: "Đơn đã duyệt, đang chạy"},
		}
	default:
		return StatCaptions{
			Pending:    StatCaption{Label: "pending", Description: "Pending"},
			Processing: StatCaption{Label: "processing", Description: "Processing"},
		}
	}
}
