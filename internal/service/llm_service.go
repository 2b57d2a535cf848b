package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"

	"github.com/Nikkie2411/pedmedvn-sub000/pkg/config"
)

// LLMService wraps the GigaChat client behind the generative backend used by
// the answer pipeline. It rephrases deterministic extracts only; when it
// fails, callers fall back to the deterministic answer.
type LLMService struct {
	client *gigago.Client
	model  *gigago.GenerativeModel
	logger *zap.Logger
}

func buildSystemInstruction() string {
	return `Bạn là dược sĩ lâm sàng nhi khoa, hỗ trợ phụ huynh và nhân viên y tế tra cứu thông tin thuốc cho trẻ em.

QUY TẮC BẮT BUỘC:
1. Chỉ diễn đạt lại thông tin được cung cấp trong phần dữ liệu. TUYỆT ĐỐI không thêm liều lượng, chỉ định hay con số nào không có trong dữ liệu.
2. Trả lời bằng tiếng Việt, ngắn gọn, tối đa 150 từ, dễ hiểu với người không chuyên.
3. Không chẩn đoán, không kê đơn, không khuyên dừng hay đổi thuốc.
4. Với câu hỏi về liều, luôn nhắc người hỏi xác nhận lại với bác sĩ hoặc dược sĩ trước khi dùng.
5. Không dùng định dạng markdown, không dùng danh sách đánh số trừ khi dữ liệu có sẵn.`
}

func NewLLMService(cfg *config.GigaChatConfig, logger *zap.Logger) (*LLMService, error) {
	ctx := context.Background()

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel("GigaChat")
	model.SystemInstruction = buildSystemInstruction()
	model.Temperature = 0.2

	return &LLMService{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Generate asks the model to rephrase a deterministic extract. It returns an
// error on transport failures and on empty completions; the pipeline treats
// both the same way.
func (s *LLMService) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	}

	resp, err := s.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	return content, nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
