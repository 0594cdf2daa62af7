// Package pagecontext works out where in the LMS the chat is mounted so
// the tutor can be told which page, activity or attempt the learner is on.
package pagecontext

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// the front page course, never a real course
const SiteCourseID = 1

// what the host page exposes about itself
type Page struct {
	// explicit page type, e.g. "mod-forum-discuss"
	PageType    string
	BodyID      string
	BodyClasses string
	URL         string
	CourseID    int64
}

// the detected page context sent along with every message
type Context struct {
	PageType     string `json:"page,omitempty"`
	DiscussionID int64  `json:"discussionid,omitempty"`
	ForumID      int64  `json:"forumid,omitempty"`
	AttemptID    int64  `json:"attemptid,omitempty"`
	AssignID     int64  `json:"assignid,omitempty"`
	PageID       int64  `json:"pageid,omitempty"`
}

var pathClass = regexp.MustCompile(`path-([\w-]+)`)

// detects the page type and the activity ids found in the page URL
func Detect(p Page) Context {
	ctx := Context{PageType: pageType(p)}

	query := queryOf(p.URL)
	if query == nil || ctx.PageType == "" {
		return ctx
	}

	switch {
	case strings.Contains(ctx.PageType, "forum"):
		ctx.DiscussionID = intParam(query, "d")
		ctx.ForumID = intParam(query, "f")
	case strings.Contains(ctx.PageType, "quiz"):
		ctx.AttemptID = intParam(query, "attempt")
	case strings.Contains(ctx.PageType, "assign"):
		ctx.AssignID = intParam(query, "id")
	case strings.Contains(ctx.PageType, "wiki"):
		ctx.PageID = intParam(query, "pageid")
	}

	return ctx
}

// explicit value first, then the body id, then a path- body class
func pageType(p Page) string {
	if p.PageType != "" {
		return p.PageType
	}

	if p.BodyID != "" {
		return strings.Replace(p.BodyID, "page-", "", 1)
	}

	if match := pathClass.FindStringSubmatch(p.BodyClasses); match != nil {
		return match[1]
	}

	return ""
}

func queryOf(raw string) url.Values {
	if raw == "" {
		return nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil
	}

	return parsed.Query()
}

func intParam(query url.Values, key string) int64 {
	value, err := strconv.ParseInt(query.Get(key), 10, 64)
	if err != nil || value < 0 {
		return 0
	}

	return value
}

// adds the detected fields to meta, skipping the ones not found
func (c Context) Apply(meta map[string]any) {
	if c.PageType != "" {
		meta["page"] = c.PageType
	}

	ids := map[string]int64{
		"discussionid": c.DiscussionID,
		"forumid":      c.ForumID,
		"attemptid":    c.AttemptID,
		"assignid":     c.AssignID,
		"pageid":       c.PageID,
	}

	for key, id := range ids {
		if id > 0 {
			meta[key] = id
		}
	}
}

// reports whether the chat belongs on this page: any page inside a real
// course, never the site front page
func IsCourseContext(p Page) bool {
	return p.CourseID > SiteCourseID
}

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// value sent as user_role metadata
func (r Role) Display() string {
	if r == RoleTeacher {
		return "Teacher"
	}

	return "Student"
}

// parses a role string leniently, anything unknown is a student
func ParseRole(value string) Role {
	if strings.EqualFold(strings.TrimSpace(value), string(RoleTeacher)) {
		return RoleTeacher
	}

	return RoleStudent
}
