// Package api 定義 HTTP 與 WebSocket 的路由
// 包含用戶認證、捐贈物品交接、對話歷史與即時聊天的連接點
package api
