package userctx

import "context"

// Context key type
type contextKey string

const accountIDKey contextKey = "account_id"
const displayNameKey contextKey = "display_name"

// SetAccountID adds the authenticated account ID to request context
func SetAccountID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, accountIDKey, id)
}

// GetAccountID retrieves the authenticated account ID from request context
func GetAccountID(ctx context.Context) string {
	if accountID := ctx.Value(accountIDKey); accountID != nil {
		if id, ok := accountID.(string); ok {
			return id
		}
	}
	return ""
}

// SetDisplayName adds the account display name to request context
func SetDisplayName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, displayNameKey, name)
}

// GetDisplayName retrieves the display name from request context
func GetDisplayName(ctx context.Context) string {
	name, ok := ctx.Value(displayNameKey).(string)
	if !ok {
		return "anonymous"
	}
	return name
}
