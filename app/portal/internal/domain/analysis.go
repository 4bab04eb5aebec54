package domain

import "time"

// PredictRequest 分析请求，text 与 url 至少提供一个
type PredictRequest struct {
	AnalysisID string `json:"analysis_id"`
	Text       string `json:"text"`
	URL        string `json:"url"`
	Title      string `json:"title"`
}

// CancelRequest 取消请求
type CancelRequest struct {
	AnalysisID string `json:"analysis_id"`
}

// CancelReply 取消结果
type CancelReply struct {
	Success    bool   `json:"success"`
	AnalysisID string `json:"analysis_id"`
	Message    string `json:"message"`
}

// HistoryItem 历史分析摘要
type HistoryItem struct {
	ID              string    `json:"analysis_id"`
	Title           string    `json:"title"`
	URL             string    `json:"url,omitempty"`
	FinalScore      int       `json:"final_score"`
	Classification  string    `json:"classification"`
	FactualityLevel string    `json:"factuality_level"`
	CreatedAt       time.Time `json:"created_at"`
}

// HistoryReply 历史列表
type HistoryReply struct {
	Items []*HistoryItem `json:"items"`
	Total int            `json:"total"`
}
