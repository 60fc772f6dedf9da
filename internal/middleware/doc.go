// Package middleware 提供 Gin 中間件
// 目前包含 JWT 驗證，將通過驗證的用戶 ID 與角色放入請求上下文
package middleware
