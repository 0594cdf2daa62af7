package widget

import "strings"

// values substituted into the welcome message
type Placeholders struct {
	FirstName   string
	LastName    string
	Email       string
	SiteName    string
	CourseName  string
	TeacherName string
}

func (p Placeholders) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// replaces {username}, {firstname}, {lastname}, {email}, {sitename},
// {coursename} and {teachername}; unknown braces are left alone
func (p Placeholders) Replace(text string) string {
	return strings.NewReplacer(
		"{username}", p.FullName(),
		"{firstname}", p.FirstName,
		"{lastname}", p.LastName,
		"{email}", p.Email,
		"{sitename}", p.SiteName,
		"{coursename}", p.CourseName,
		"{teachername}", p.TeacherName,
	).Replace(text)
}
