package usercontext

// KeyUserContext is the Locals key the middleware stores the request's
// UserContext under.
const KeyUserContext = "USER_CONTEXT"

// Session keys shared between the auth handlers and the middleware.
const (
	AuthKey     = "authenticated"
	KeyUserID   = "user_id"
	KeyUsername = "username"
	KeyIsAdmin  = "isAdmin"
	KeyUserPlan = "user_plan"
)
