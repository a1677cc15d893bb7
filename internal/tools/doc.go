// Package tools 实现对外暴露的七个链上工具以及统一的结果类型。
//
// 所有工具都先在本地完成输入校验，再通过 ethereum.Connector 懒加载链连接；
// 任何内部错误都会在 Toolkit 边界被转换为 Result，调用方无需处理 panic 或异常。
package tools
