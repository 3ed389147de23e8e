package ctxutil

import "context"

// 私有 key 类型避免与其他 context key 冲突
type userIDKeyType struct{}
type roleKeyType struct{}

var (
	userIDKey = userIDKeyType{}
	roleKey   = roleKeyType{}
)

// WithUserID 将认证后的身份注入到 context 中
// 在认证中间件解析 JWT 成功后调用：
//
//	ctx := ctxutil.WithUserID(c.Request.Context(), claims.UserID)
//	c.Request = c.Request.WithContext(ctx)
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID 从 context 中解析认证身份
// 第二个返回值为 false 表示请求是匿名的
func GetUserID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// WithRole 将用户角色注入到 context 中
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, roleKey, role)
}

// GetRole 从 context 中解析用户角色
func GetRole(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	role, ok := ctx.Value(roleKey).(string)
	if !ok || role == "" {
		return "", false
	}
	return role, true
}
