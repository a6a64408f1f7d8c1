package middlewares

const (
	CtxRequestID = "request_id"

	ctxSubjectKey = "auth.subject"
	ctxEmailKey   = "auth.email"
	ctxRoleKey    = "auth.role"
)
