package model

// MemberStatus 멤버 상태
type MemberStatus string

const (
	MemberStatusPending MemberStatus = "PENDING"
	MemberStatusActive  MemberStatus = "ACTIVE"
)

func (s MemberStatus) String() string {
	return string(s)
}

// NotificationType 알림 타입
type NotificationType string

const (
	NotificationTypeOrgInvite       NotificationType = "ORG_INVITE"
	NotificationTypeTaskAssigned    NotificationType = "TASK_ASSIGNED"
	NotificationTypeMinutesApproved NotificationType = "MINUTES_APPROVED"
)

func (n NotificationType) String() string {
	return string(n)
}

// MeetingType 회의 타입
type MeetingType string

const (
	MeetingTypeBoard     MeetingType = "BOARD"
	MeetingTypeCommittee MeetingType = "COMMITTEE"
	MeetingTypeSpecial   MeetingType = "SPECIAL"
	MeetingTypeAnnual    MeetingType = "ANNUAL"
)

func (m MeetingType) String() string {
	return string(m)
}

// Valid 허용된 타입인지 확인
func (m MeetingType) Valid() bool {
	switch m {
	case MeetingTypeBoard, MeetingTypeCommittee, MeetingTypeSpecial, MeetingTypeAnnual:
		return true
	}
	return false
}

// MeetingStatus 회의 상태
type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "SCHEDULED"
	MeetingStatusCompleted MeetingStatus = "COMPLETED"
	MeetingStatusArchived  MeetingStatus = "ARCHIVED"
)

func (s MeetingStatus) String() string {
	return string(s)
}

func (s MeetingStatus) Valid() bool {
	switch s {
	case MeetingStatusScheduled, MeetingStatusCompleted, MeetingStatusArchived:
		return true
	}
	return false
}

// BadgeClass 상태별 표시 클래스 (알 수 없는 상태 fallback 없음)
func (s MeetingStatus) BadgeClass() string {
	switch s {
	case MeetingStatusScheduled:
		return "badge-info"
	case MeetingStatusCompleted:
		return "badge-success"
	case MeetingStatusArchived:
		return "badge-muted"
	}
	return ""
}

// AgendaItemType 안건 타입
type AgendaItemType string

const (
	AgendaItemDiscussion AgendaItemType = "DISCUSSION"
	AgendaItemReport     AgendaItemType = "REPORT"
	AgendaItemAction     AgendaItemType = "ACTION"
	AgendaItemVote       AgendaItemType = "VOTE"
)

func (t AgendaItemType) String() string {
	return string(t)
}

func (t AgendaItemType) Valid() bool {
	switch t {
	case AgendaItemDiscussion, AgendaItemReport, AgendaItemAction, AgendaItemVote:
		return true
	}
	return false
}

// MinutesStatus 회의록 상태
type MinutesStatus string

const (
	MinutesStatusDraft    MinutesStatus = "DRAFT"
	MinutesStatusApproved MinutesStatus = "APPROVED"
)

func (s MinutesStatus) String() string {
	return string(s)
}

func (s MinutesStatus) BadgeClass() string {
	switch s {
	case MinutesStatusDraft:
		return "badge-warning"
	case MinutesStatusApproved:
		return "badge-success"
	}
	return ""
}

// TaskStatus 업무 상태
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

func (s TaskStatus) String() string {
	return string(s)
}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusCancelled:
		return true
	}
	return false
}

func (s TaskStatus) BadgeClass() string {
	switch s {
	case TaskStatusTodo:
		return "badge-muted"
	case TaskStatusInProgress:
		return "badge-info"
	case TaskStatusDone:
		return "badge-success"
	case TaskStatusCancelled:
		return "badge-danger"
	}
	return ""
}

// TaskPriority 업무 우선순위
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

func (p TaskPriority) String() string {
	return string(p)
}

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// CheckStatus 신원 조회 상태
type CheckStatus string

const (
	CheckStatusPending    CheckStatus = "PENDING"
	CheckStatusInProgress CheckStatus = "IN_PROGRESS"
	CheckStatusClear      CheckStatus = "CLEAR"
	CheckStatusFlagged    CheckStatus = "FLAGGED"
	CheckStatusExpired    CheckStatus = "EXPIRED"
)

func (s CheckStatus) String() string {
	return string(s)
}

func (s CheckStatus) Valid() bool {
	switch s {
	case CheckStatusPending, CheckStatusInProgress, CheckStatusClear, CheckStatusFlagged, CheckStatusExpired:
		return true
	}
	return false
}

func (s CheckStatus) BadgeClass() string {
	switch s {
	case CheckStatusPending:
		return "badge-muted"
	case CheckStatusInProgress:
		return "badge-info"
	case CheckStatusClear:
		return "badge-success"
	case CheckStatusFlagged:
		return "badge-danger"
	case CheckStatusExpired:
		return "badge-warning"
	}
	return ""
}

// 권한 코드
const (
	PermissionAdmin           = "ADMIN"
	PermissionManageMeetings  = "MANAGE_MEETINGS"
	PermissionEditMinutes     = "EDIT_MINUTES"
	PermissionApproveMinutes  = "APPROVE_MINUTES"
	PermissionManageDocuments = "MANAGE_DOCUMENTS"
	PermissionManageTasks     = "MANAGE_TASKS"
	PermissionManageMembers   = "MANAGE_MEMBERS"
	PermissionManageRoles     = "MANAGE_ROLES"
)

// AllPermissionCodes 역할 편집 UI에서 쓰는 전체 권한 목록
var AllPermissionCodes = []string{
	PermissionAdmin,
	PermissionManageMeetings,
	PermissionEditMinutes,
	PermissionApproveMinutes,
	PermissionManageDocuments,
	PermissionManageTasks,
	PermissionManageMembers,
	PermissionManageRoles,
}
