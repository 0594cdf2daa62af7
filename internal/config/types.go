package config

import "time"

type SessionStoreKind string

const (
	StoreMemory   SessionStoreKind = "memory"
	StoreRedis    SessionStoreKind = "redis"
	StorePostgres SessionStoreKind = "postgres"
)

type Config struct {
	Environment string
	Port        string

	TutoriaAPIURL   string
	TutoriaAPIToken string
	TutoriaEnabled  bool

	JWTSecret string

	SessionStore SessionStoreKind
	RedisURL     string
	DatabaseURL  string

	RateLimit          string
	CORSAllowedOrigins []string

	AdminConfigURL     string
	OffTopicDetection  bool
	OffTopicStrictness string
	CustomPrompt       string
}

// settings for the terminal chat client
type TUIConfig struct {
	HostEndpoint string
	Token        string
	StreamMode   string
	Timeout      time.Duration

	CourseID int64
	CMID     int64
	PageType string
	PageURL  string
	Role     string

	FirstName   string
	LastName    string
	Email       string
	SiteName    string
	CourseName  string
	TeacherName string

	Welcome      string
	QuickOptions string
	LogFile      string
}
