package websocket

type RelayParams struct {
	CourseID int64 `form:"course_id" binding:"required,min=1"`
}
