package core

// Importance is the catalog weight of a check.
type Importance int

const (
	ImportanceHigh Importance = iota + 1
	ImportanceMedium
	ImportanceLow
)

// CheckStatus is the verdict of a single check.
type CheckStatus int

const (
	// StatusGood means the policy rule is satisfied by the observed state.
	StatusGood CheckStatus = iota + 1
	// StatusVulnerable means the rule is not satisfied.
	StatusVulnerable
	// StatusCheckFailed means not enough state could be observed to decide.
	// It is never a synonym for StatusVulnerable.
	StatusCheckFailed
	// StatusManualCheck withholds a machine verdict on purpose.
	StatusManualCheck
)

// Category groups checks the way the audit checklist does.
type Category int

const (
	CategoryAccount Category = iota + 1
	CategoryService
	CategorySecurity
	CategoryPatch
)

// Wire labels. Downstream consumers key on these literals.
var (
	importanceLabels = []string{"", "상", "중", "하"}
	statusLabels     = []string{"", "양호", "취약", "점검 실패", "수동 점검"}
	categoryLabels   = []string{"", "계정 관리", "서비스 관리", "보안 관리", "패치 관리"}
)

var statusNames = []string{"", "Good", "Vulnerable", "CheckFailed", "ManualCheck"}

func (i Importance) String() string  { return label(importanceLabels, int(i)) }
func (s CheckStatus) String() string { return label(statusLabels, int(s)) }
func (c Category) String() string    { return label(categoryLabels, int(c)) }

// Name returns the English identifier of the status, used in logs and metrics.
func (s CheckStatus) Name() string { return label(statusNames, int(s)) }

// Valid reports whether s is one of the four verdicts.
func (s CheckStatus) Valid() bool { return s >= StatusGood && s <= StatusManualCheck }

// Statuses lists every verdict in wire order.
func Statuses() []CheckStatus {
	return []CheckStatus{StatusGood, StatusVulnerable, StatusCheckFailed, StatusManualCheck}
}

func label(labels []string, i int) string {
	if i <= 0 || i >= len(labels) {
		return ""
	}
	return labels[i]
}
