package usage

// Category is one of the independently tracked daily usage counters.
type Category string

const (
	// CategoryGeneral counts all AI actions.
	CategoryGeneral Category = "general"
	// CategoryWorkspace counts workspace actions, which also draw from the
	// general pool: a workspace action is an AI action.
	CategoryWorkspace Category = "workspace"
	CategoryShare     Category = "share"
	CategoryImage     Category = "image_analysis"
)

// Unlimited is the limit sentinel reported for premium users.
const Unlimited int64 = -1

// Daily limits for free users, per UTC calendar day.
const (
	GeneralDailyLimit   int64 = 15
	WorkspaceDailyLimit int64 = 4
	ShareDailyLimit     int64 = 1
	ImageDailyLimit     int64 = 1
)

// Block reasons reported when a check denies an action.
const (
	ReasonWorkspaceLimitReached = "workspace_limit_reached"
	ReasonTotalLimitReached     = "total_limit_reached"
	ReasonShareLimitReached     = "share_limit_reached"
	ReasonImageLimitReached     = "image_analysis_limit_reached"
)

// Status is the answer to "can user U perform action category C today?".
// TotalUsed/TotalLimit are populated only for the workspace category, which
// is gated by both its own sub-limit and the general pool.
type Status struct {
	CanUse     bool   `json:"canUse"`
	Used       int64  `json:"used"`
	Remaining  int64  `json:"remaining"`
	Limit      int64  `json:"limit"`
	Percentage int    `json:"percentage"`
	IsPremium  bool   `json:"isPremium"`
	TotalUsed  *int64 `json:"totalUsed,omitempty"`
	TotalLimit *int64 `json:"totalLimit,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// ParseCategory maps a request path segment to a known category.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryGeneral, CategoryWorkspace, CategoryShare, CategoryImage:
		return Category(s), true
	default:
		return "", false
	}
}
