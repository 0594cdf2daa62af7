package chat

// query string of the history and delete endpoints
type CourseQuery struct {
	CourseID int64 `form:"course_id" binding:"required,min=1"`
}
