package userctx

import "context"

// Context key type
type contextKey string

const userEmailKey contextKey = "user_email"
const userIDKey contextKey = "user_id"

// SetUserEmail adds user email to request context
func SetUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, userEmailKey, email)
}

// GetUserEmail retrieves user email from request context
func GetUserEmail(ctx context.Context) string {
	email, ok := ctx.Value(userEmailKey).(string)
	if !ok {
		return "anonymous"
	}
	return email
}

// SetUserID adds the local user ID to request context
func SetUserID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// GetUserID retrieves the local user ID from request context, 0 when absent
func GetUserID(ctx context.Context) int {
	id, _ := ctx.Value(userIDKey).(int)
	return id
}
