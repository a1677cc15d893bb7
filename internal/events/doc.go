// Package events 定义交易生命周期事件以及将其投递到外部系统的发布器。
//
// 事件仅用于通知，不承担持久化或索引职责；发布失败不会影响工具调用结果。
package events
