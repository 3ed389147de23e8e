package service

import "pomelo/internal/model"

// SelectModel 根据配额预占结果选择模型
// 纯函数：配额计数只在台账里变更一次，这里绝不做任何写入
func SelectModel(granted bool, cfg *model.ChatRuntimeConfig) string {
	if granted {
		return cfg.PrimaryModel
	}
	return cfg.FallbackModel
}
