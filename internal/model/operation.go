package model

import (
	"strings"
	"time"
)

// 写操作类型
const (
	OpCreate        = "create"
	OpCreateWithKey = "createWithKey"
	OpUpdate        = "update"
	OpRemove        = "remove"
	OpBatch         = "batch"
)

// 写操作状态
const (
	OpStatusPending   = "pending"
	OpStatusSucceeded = "succeeded"
	OpStatusFailed    = "failed"
)

// Operation 一次写操作的加载/错误状态，互不影响
type Operation struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Path       string     `json:"path"`
	Paths      []string   `json:"paths,omitempty"` // batch 涉及的全部路径
	Actor      string     `json:"actor,omitempty"` // 发起操作的用户 id
	Status     string     `json:"status"`
	Key        string     `json:"key,omitempty"` // createWithKey 生成的 key
	Error      string     `json:"error,omitempty"`
	ErrorCode  string     `json:"errorCode,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Loading 是否仍在执行
func (o *Operation) Loading() bool {
	return o.Status == OpStatusPending
}

// ValidationError 写入前的校验失败，Problems 为可读的错误描述
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "数据校验失败: " + strings.Join(e.Problems, "; ")
}

// NewValidationError 没有问题时返回 nil，重复的描述只保留一条
func NewValidationError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(problems))
	out := make([]string, 0, len(problems))
	for _, p := range problems {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return &ValidationError{Problems: out}
}
