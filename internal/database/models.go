package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumeai/internal/resume"
)

// DefaultAICredits 是新账号赠送的 AI 生成次数。
const DefaultAICredits = 3

// User 表示系统中的账号信息与额度余额。
type User struct {
	gorm.Model
	Username           string   `gorm:"uniqueIndex;size:64"`
	PasswordHash       string   `gorm:"size:255"`
	Email              string   `gorm:"size:255"`
	IsPremium          bool     `gorm:"not null"`
	AICredits          int      `gorm:"not null"`
	DownloadCredits    int      `gorm:"not null"`
	MustChangePassword bool     `gorm:"not null"`
	Resumes            []Resume `gorm:"constraint:OnDelete:CASCADE"`
}

// Resume 是简历行。八个条目分区与分区顺序以 JSON 列内嵌存储（Postgres 下为 jsonb）。
// 布尔开关不设数据库默认值，默认值由领域层在创建时写入。
type Resume struct {
	ID       string `gorm:"primaryKey;size:36"`
	UserID   uint   `gorm:"index;not null"`
	User     User   `gorm:"constraint:OnDelete:CASCADE"`
	Title    string `gorm:"size:255;not null"`
	Template string `gorm:"size:32;not null"`

	FullName string `gorm:"size:255"`
	Email    string `gorm:"size:255"`
	Phone    string `gorm:"size:64"`
	Location string `gorm:"size:255"`
	Website  string `gorm:"size:512"`
	LinkedIn string `gorm:"column:linkedin;size:512"`
	GitHub   string `gorm:"column:github;size:512"`
	Summary  string `gorm:"type:text"`

	Experience     datatypes.JSONType[[]resume.Experience]
	Education      datatypes.JSONType[[]resume.Education]
	Skills         datatypes.JSONType[[]resume.SkillCategory]
	Projects       datatypes.JSONType[[]resume.Project]
	Certifications datatypes.JSONType[[]resume.Certification]
	Achievements   datatypes.JSONType[[]resume.Achievement]
	Languages      datatypes.JSONType[[]resume.Language]
	Interests      datatypes.JSONType[[]resume.Interest]

	ShowSummary        bool `gorm:"not null"`
	ShowExperience     bool `gorm:"not null"`
	ShowEducation      bool `gorm:"not null"`
	ShowSkills         bool `gorm:"not null"`
	ShowProjects       bool `gorm:"not null"`
	ShowCertifications bool `gorm:"not null"`
	ShowAchievements   bool `gorm:"not null"`
	ShowLanguages      bool `gorm:"not null"`
	ShowInterests      bool `gorm:"not null"`

	SectionOrder datatypes.JSONType[[]resume.SectionID]

	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

// 支付状态机：pending -> completed | failed，completed 只会到达一次。
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment 记录一次购买下载额度的订单。
type Payment struct {
	ID               string `gorm:"primaryKey;size:36"`
	UserID           uint   `gorm:"index;not null"`
	User             User   `gorm:"constraint:OnDelete:CASCADE"`
	GatewayOrderID   string `gorm:"size:64;index"`
	GatewayPaymentID string `gorm:"size:64"`
	GatewaySignature string `gorm:"size:255"`
	Plan             string `gorm:"size:32;not null"`
	Amount           int64  `gorm:"not null"`
	Currency         string `gorm:"size:8;not null"`
	Status           string `gorm:"size:16;not null;index"`
	CreditsGranted   int    `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const (
	ExportQueued    = "queued"
	ExportCompleted = "completed"
	ExportFailed    = "failed"
)

// Export 记录一次消耗下载额度的 PDF 导出。
type Export struct {
	ID        string `gorm:"primaryKey;size:36"`
	ResumeID  string `gorm:"size:36;index;not null"`
	UserID    uint   `gorm:"index;not null"`
	Template  string `gorm:"size:32;not null"`
	Status    string `gorm:"size:16;not null"`
	ObjectKey string `gorm:"size:512"`
	Error     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
