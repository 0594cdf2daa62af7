package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"codeberg.org/tutoria/server/internal/pagecontext"
)

const (
	defaultHostEndpoint = "http://localhost:8080"
	defaultWelcome      = "Hi {firstname}! I'm {teachername}, your tutor for {coursename}. How can I help?"
)

// parses CLI flags for the terminal client, with environment fallbacks
func ParseTUIFlags(args []string) (*TUIConfig, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - .env is optional
	}

	cfg := &TUIConfig{}

	fs := flag.NewFlagSet("tutoria", flag.ContinueOnError)
	fs.StringVar(&cfg.HostEndpoint, "host", envOr("TUTORIA_HOST_ENDPOINT", defaultHostEndpoint), "chat host base URL")
	fs.StringVar(&cfg.Token, "token", os.Getenv("TUTORIA_TOKEN"), "bearer token issued by the host")
	fs.StringVar(&cfg.StreamMode, "stream", envOr("TUTORIA_STREAM_MODE", "sse"), "reply transport: sse or ws")
	fs.DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "request timeout")
	fs.Int64Var(&cfg.CourseID, "course", 0, "course id")
	fs.Int64Var(&cfg.CMID, "cmid", 0, "course module id")
	fs.StringVar(&cfg.PageType, "page-type", "", "page type, e.g. mod-forum-discuss")
	fs.StringVar(&cfg.PageURL, "page-url", "", "page URL, used for activity ids")
	fs.StringVar(&cfg.Role, "role", "student", "student or teacher")
	fs.StringVar(&cfg.FirstName, "first-name", os.Getenv("TUTORIA_FIRST_NAME"), "user first name")
	fs.StringVar(&cfg.LastName, "last-name", os.Getenv("TUTORIA_LAST_NAME"), "user last name")
	fs.StringVar(&cfg.Email, "email", os.Getenv("TUTORIA_EMAIL"), "user email")
	fs.StringVar(&cfg.SiteName, "site-name", envOr("TUTORIA_SITE_NAME", "Campus"), "site name")
	fs.StringVar(&cfg.CourseName, "course-name", "", "course name")
	fs.StringVar(&cfg.TeacherName, "teacher-name", envOr("TUTORIA_TEACHER_NAME", "Tutor-IA"), "tutor display name")
	fs.StringVar(&cfg.Welcome, "welcome", envOr("TUTORIA_WELCOME", defaultWelcome), "welcome message, supports placeholders")
	fs.StringVar(&cfg.QuickOptions, "quick-options", os.Getenv("TUTORIA_QUICK_OPTIONS"), "quick options as a JSON list of {icon,label,prompt}")
	fs.StringVar(&cfg.LogFile, "log-file", envOr("TUTORIA_LOG_FILE", "tutoria-tui.log"), "file to write logs to")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if !pagecontext.IsCourseContext(pagecontext.Page{CourseID: cfg.CourseID}) {
		return nil, fmt.Errorf("-course must be a course id greater than %d", pagecontext.SiteCourseID)
	}

	if cfg.StreamMode != "sse" && cfg.StreamMode != "ws" {
		return nil, fmt.Errorf("-stream must be sse or ws, got %q", cfg.StreamMode)
	}

	return cfg, nil
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}

	return fallback
}
