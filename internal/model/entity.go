package model

import (
	"time"
)

// User 사용자
type User struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Nickname   string    `gorm:"type:varchar(100);not null" json:"nickname"`
	ProfileImg *string   `gorm:"type:text" json:"profile_img,omitempty"`
	Provider   *string   `gorm:"type:varchar(50)" json:"provider,omitempty"`
	ProviderID *string   `gorm:"type:varchar(255)" json:"provider_id,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Memberships []OrgMember `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Organization 단체 (테넌트 루트)
type Organization struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	OwnerID     int64     `gorm:"not null" json:"owner_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Owner     User        `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members   []OrgMember `gorm:"foreignKey:OrgID" json:"members,omitempty"`
	Roles     []Role      `gorm:"foreignKey:OrgID" json:"roles,omitempty"`
	Meetings  []Meeting   `gorm:"foreignKey:OrgID" json:"meetings,omitempty"`
	Documents []Document  `gorm:"foreignKey:OrgID" json:"documents,omitempty"`
}

func (Organization) TableName() string {
	return "organizations"
}

// Role 역할
type Role struct {
	ID        int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrgID     int64   `gorm:"not null" json:"org_id"`
	Name      string  `gorm:"type:varchar(50);not null" json:"name"`
	Color     *string `gorm:"type:varchar(20)" json:"color,omitempty"`
	IsDefault bool    `gorm:"default:false" json:"is_default"`

	// Relations
	Organization Organization     `gorm:"foreignKey:OrgID" json:"organization,omitempty"`
	Permissions  []RolePermission `gorm:"foreignKey:RoleID" json:"permissions,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// RolePermission 역할 권한
type RolePermission struct {
	RoleID         int64  `gorm:"primaryKey" json:"role_id"`
	PermissionCode string `gorm:"primaryKey;type:varchar(50);not null" json:"permission_code"`

	// Relations
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

// OrgMember 단체 멤버
type OrgMember struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrgID    int64     `gorm:"not null;index" json:"org_id"`
	UserID   int64     `gorm:"not null;index" json:"user_id"`
	RoleID   *int64    `json:"role_id,omitempty"`
	Status   string    `gorm:"type:varchar(20);default:'ACTIVE'" json:"status"` // PENDING, ACTIVE
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrgID" json:"organization,omitempty"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role         *Role        `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (OrgMember) TableName() string {
	return "org_members"
}

// Meeting 회의
type Meeting struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrgID       int64     `gorm:"not null;index" json:"org_id"`
	CreatorID   int64     `gorm:"not null" json:"creator_id"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Type        string    `gorm:"type:varchar(20);not null" json:"type"` // BOARD, COMMITTEE, SPECIAL, ANNUAL
	Status      string    `gorm:"type:varchar(20);default:'SCHEDULED'" json:"status"`
	ScheduledAt time.Time `gorm:"not null;index" json:"scheduled_at"`
	Location    *string   `gorm:"type:varchar(255)" json:"location,omitempty"`
	VirtualURL  *string   `gorm:"type:text" json:"virtual_url,omitempty"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrgID" json:"organization,omitempty"`
	Creator      User         `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	AgendaItems  []AgendaItem `gorm:"foreignKey:MeetingID" json:"agenda_items,omitempty"`
	Minutes      *Minutes     `gorm:"foreignKey:MeetingID" json:"minutes,omitempty"`
}

func (Meeting) TableName() string {
	return "meetings"
}

// AgendaItem 안건 (회의 내 sort_order는 빈틈 없는 순번)
type AgendaItem struct {
	ID            int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID     int64   `gorm:"not null;index" json:"meeting_id"`
	Title         string  `gorm:"type:varchar(200);not null" json:"title"`
	Description   *string `gorm:"type:text" json:"description,omitempty"`
	ItemType      string  `gorm:"type:varchar(20);not null;default:'DISCUSSION'" json:"item_type"`
	TimeAllocated *int    `json:"time_allocated,omitempty"` // 분 단위
	Presenter     *string `gorm:"type:varchar(100)" json:"presenter,omitempty"`
	SortOrder     int     `gorm:"not null;default:0" json:"sort_order"`

	// Relations
	Meeting Meeting `gorm:"foreignKey:MeetingID" json:"meeting,omitempty"`
}

func (AgendaItem) TableName() string {
	return "agenda_items"
}

// Minutes 회의록 (회의당 1건, 지연 생성)
type Minutes struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID  int64      `gorm:"not null;uniqueIndex" json:"meeting_id"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Status     string     `gorm:"type:varchar(20);default:'DRAFT'" json:"status"` // DRAFT, APPROVED
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	ApprovedBy *int64     `json:"approved_by,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Meeting Meeting `gorm:"foreignKey:MeetingID" json:"meeting,omitempty"`
}

func (Minutes) TableName() string {
	return "minutes"
}

// Task 업무 (안건 액션 아이템에서 승격 가능)
type Task struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrgID        int64      `gorm:"not null;index" json:"org_id"`
	MeetingID    *int64     `json:"meeting_id,omitempty"`
	AgendaItemID *int64     `json:"agenda_item_id,omitempty"`
	Title        string     `gorm:"type:varchar(200);not null" json:"title"`
	Description  *string    `gorm:"type:text" json:"description,omitempty"`
	AssignedTo   *int64     `json:"assigned_to,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Priority     string     `gorm:"type:varchar(20);default:'MEDIUM'" json:"priority"`
	Status       string     `gorm:"type:varchar(20);default:'TODO'" json:"status"`
	CreatedBy    int64      `gorm:"not null" json:"created_by"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Organization Organization  `gorm:"foreignKey:OrgID" json:"organization,omitempty"`
	Meeting      *Meeting      `gorm:"foreignKey:MeetingID" json:"meeting,omitempty"`
	Assignee     *User         `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	Comments     []TaskComment `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}

// TaskComment 업무 코멘트
type TaskComment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TaskID    int64     `gorm:"not null;index" json:"task_id"`
	AuthorID  int64     `gorm:"not null" json:"author_id"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Task   Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Author User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (TaskComment) TableName() string {
	return "task_comments"
}

// Document 문서
type Document struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrgID       int64     `gorm:"not null;index" json:"org_id"`
	UploaderID  *int64    `json:"uploader_id,omitempty"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	FileType    *string   `gorm:"type:varchar(100)" json:"file_type,omitempty"`
	FileSize    *int64    `json:"file_size,omitempty"`
	FileURL     *string   `gorm:"type:text" json:"file_url,omitempty"`
	S3Key       *string   `gorm:"type:varchar(500)" json:"s3_key,omitempty"`
	IsPublic    bool      `gorm:"default:false" json:"is_public"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Organization Organization    `gorm:"foreignKey:OrgID" json:"organization,omitempty"`
	Uploader     *User           `gorm:"foreignKey:UploaderID" json:"uploader,omitempty"`
	Shares       []DocumentShare `gorm:"foreignKey:DocumentID" json:"shares,omitempty"`
}

func (Document) TableName() string {
	return "documents"
}

// DocumentShare 문서 공유 정책 (접근 게이트 설정)
type DocumentShare struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID    int64     `gorm:"not null;index" json:"document_id"`
	Token         string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"token"`
	PasswordHash  *string   `gorm:"type:varchar(100)" json:"-"`
	RequireEmail  bool      `gorm:"default:false" json:"require_email"`
	RequireTos    bool      `gorm:"default:false" json:"require_tos"`
	AllowDownload bool      `gorm:"default:true" json:"allow_download"`
	AllowPrint    bool      `gorm:"default:true" json:"allow_print"`
	MaxDownloads  *int      `json:"max_downloads,omitempty"`
	DownloadCount int       `gorm:"not null;default:0" json:"download_count"`
	WatermarkText *string   `gorm:"type:varchar(200)" json:"watermark_text,omitempty"`
	CreatedBy     int64     `gorm:"not null" json:"created_by"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Document   Document         `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	AccessLogs []ShareAccessLog `gorm:"foreignKey:ShareID" json:"access_logs,omitempty"`
}

func (DocumentShare) TableName() string {
	return "document_shares"
}

// ShareAccessLog 공유 접근 기록
type ShareAccessLog struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ShareID    int64     `gorm:"not null;index" json:"share_id"`
	Email      *string   `gorm:"type:varchar(255)" json:"email,omitempty"`
	Granted    bool      `gorm:"not null" json:"granted"`
	DenyReason *string   `gorm:"type:varchar(50)" json:"deny_reason,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	// Relations
	Share DocumentShare `gorm:"foreignKey:ShareID" json:"share,omitempty"`
}

func (ShareAccessLog) TableName() string {
	return "share_access_logs"
}

// Notification 알림
type Notification struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReceiverID  int64     `gorm:"not null;index" json:"receiver_id"`
	SenderID    *int64    `json:"sender_id,omitempty"`
	Type        string    `gorm:"type:varchar(30);not null" json:"type"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	RelatedType *string   `gorm:"type:varchar(30)" json:"related_type,omitempty"`
	RelatedID   *int64    `json:"related_id,omitempty"`
	IsRead      bool      `gorm:"default:false" json:"is_read"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Receiver User  `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

// BackgroundCheck 신원 조회 기록
type BackgroundCheck struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrgID       int64      `gorm:"not null;index" json:"org_id"`
	PersonName  string     `gorm:"type:varchar(100);not null" json:"person_name"`
	Email       *string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	CheckType   string     `gorm:"type:varchar(50);not null" json:"check_type"`
	Status      string     `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	RequestedBy int64      `gorm:"not null" json:"requested_by"`
	RequestedAt time.Time  `gorm:"autoCreateTime" json:"requested_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Notes       *string    `gorm:"type:text" json:"notes,omitempty"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrgID" json:"organization,omitempty"`
}

func (BackgroundCheck) TableName() string {
	return "background_checks"
}

// ResearchRecord 기부자 자산 조사 기록
type ResearchRecord struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrgID          int64     `gorm:"not null;index" json:"org_id"`
	DonorName      string    `gorm:"type:varchar(100);not null" json:"donor_name"`
	CapacityRating *string   `gorm:"type:varchar(20)" json:"capacity_rating,omitempty"`
	Source         *string   `gorm:"type:varchar(200)" json:"source,omitempty"`
	Summary        *string   `gorm:"type:text" json:"summary,omitempty"`
	ResearchedBy   int64     `gorm:"not null" json:"researched_by"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrgID" json:"organization,omitempty"`
}

func (ResearchRecord) TableName() string {
	return "research_records"
}

// Feedback 베타 피드백
type Feedback struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        *int64    `json:"user_id,omitempty"`
	FeedbackType  string    `gorm:"type:varchar(50);not null" json:"feedback_type"`
	Category      *string   `gorm:"type:varchar(50)" json:"category,omitempty"`
	Subject       string    `gorm:"type:varchar(200);not null" json:"subject"`
	Message       string    `gorm:"type:text;not null" json:"message"`
	UserAgent     *string   `gorm:"type:varchar(255)" json:"user_agent,omitempty"`
	ScreenshotURL *string   `gorm:"type:text" json:"screenshot_url,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}
