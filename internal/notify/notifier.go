package notify

import (
	"context"
	"encoding/json"
	"fmt"

	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// RunNotice is the payload of one run-completion notification.
type RunNotice struct {
	TemplateName string
	TargetDate   string
	OutputPath   string
	AppendedRows int
	NoOp         bool
	Err          error
}

// Notifier posts run notices to a Lark group chat.
type Notifier struct {
	client *Client
	cfg    Config
	logger *zap.Logger
}

// NewNotifier creates a notifier. With Enabled false the client may be nil.
func NewNotifier(client *Client, cfg Config, logger *zap.Logger) *Notifier {
	return &Notifier{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// NotifyRunComplete posts a text notice for one finished run.
func (n *Notifier) NotifyRunComplete(ctx context.Context, notice RunNotice) error {
	if !n.cfg.Enabled {
		return nil
	}

	content, err := json.Marshal(map[string]string{"text": formatNotice(notice)})
	if err != nil {
		return fmt.Errorf("failed to encode notice: %w", err)
	}

	req := larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType("chat_id").
		Body(larkIm.NewCreateMessageReqBodyBuilder().
			ReceiveId(n.cfg.ChatID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.client.GetClient().Im.Message.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send run notice",
			zap.String("chat_id", n.cfg.ChatID),
			zap.Error(err))
		return fmt.Errorf("failed to send run notice: %w", err)
	}

	if !resp.Success() {
		n.logger.Error("API returned failure",
			zap.String("chat_id", n.cfg.ChatID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	n.logger.Info("Run notice sent",
		zap.String("template", notice.TemplateName),
		zap.String("target_date", notice.TargetDate))
	return nil
}

func formatNotice(notice RunNotice) string {
	switch {
	case notice.Err != nil:
		return fmt.Sprintf("【%s】%s 生成失败：%v", notice.TemplateName, notice.TargetDate, notice.Err)
	case notice.NoOp:
		return fmt.Sprintf("【%s】%s 无新增数据，已复制基线文件：%s", notice.TemplateName, notice.TargetDate, notice.OutputPath)
	default:
		return fmt.Sprintf("【%s】%s 已生成，追加 %d 行：%s", notice.TemplateName, notice.TargetDate, notice.AppendedRows, notice.OutputPath)
	}
}
