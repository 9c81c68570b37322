package types

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	// ErrUnreadablePDF PDF损坏或加密，无法提取文本。单份文档级致命错误，批量模式下跳过并上报
	ErrUnreadablePDF = errors.New("无法读取PDF文件")
	// ErrEmptyInput 退化输入（空分块列表、空候选人集合），属于调用方缺陷
	ErrEmptyInput = errors.New("输入为空")
	// ErrDependency 外部依赖（Embedding/LLM服务）调用失败
	ErrDependency = errors.New("外部依赖调用失败")
	// ErrDependencyTimeout 外部依赖调用超时，与ErrDependency区分以便上层做退避和提示
	ErrDependencyTimeout = errors.New("外部依赖调用超时")
)

// AnalysisError 携带候选人和阶段上下文的分析错误
type AnalysisError struct {
	CandidateID string
	Stage       string
	BaseErr     error
	Detail      string
}

func (e *AnalysisError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (阶段:%s, 候选人:%s): %s", e.BaseErr, e.Stage, e.CandidateID, e.Detail)
	}
	return fmt.Sprintf("%s (阶段:%s, 候选人:%s)", e.BaseErr, e.Stage, e.CandidateID)
}

func (e *AnalysisError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *AnalysisError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// NewAnalysisError 错误构造函数
func NewAnalysisError(candidateID, stage string, base error, detail string) error {
	return &AnalysisError{
		CandidateID: candidateID,
		Stage:       stage,
		BaseErr:     base,
		Detail:      detail,
	}
}
