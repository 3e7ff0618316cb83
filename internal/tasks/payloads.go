package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// 任务类型常量，生产者与消费者共用。
const (
	TypeExportPDF = "export:pdf"
)

// ExportPDFPayload 指向一条 Export 记录，worker 据此加载简历并生成 PDF。
type ExportPDFPayload struct {
	ExportID      string `json:"export_id"`
	ResumeID      string `json:"resume_id"`
	UserID        uint   `json:"user_id"`
	Template      string `json:"template"`
	CorrelationID string `json:"correlation_id"`
}

func NewExportPDFTask(p ExportPDFPayload, opts ...asynq.Option) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export payload: %w", err)
	}
	return asynq.NewTask(TypeExportPDF, payload, opts...), nil
}

func ParseExportPDFPayload(t *asynq.Task) (ExportPDFPayload, error) {
	var p ExportPDFPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return ExportPDFPayload{}, fmt.Errorf("unmarshal export payload: %w", err)
	}
	if p.ExportID == "" || p.ResumeID == "" || p.UserID == 0 {
		return ExportPDFPayload{}, fmt.Errorf("export payload missing ids")
	}
	return p, nil
}
