package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// GenerativeBackend is the optional fluency layer. It is treated as
// untrusted: any error, timeout or empty reply downgrades the answer to the
// deterministic formatting, never to a failure.
type GenerativeBackend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// assemble builds the final message for a successfully extracted cell. The
// deterministic text with its safety framing is always built first; the
// generative backend, when configured, may replace it with a more fluent
// rendition of the same facts.
func (e *Engine) assemble(ctx context.Context, query string, cell Cell, ref Refinement, qc QueryContext) Result {
	deterministic := e.deterministicMessage(cell, ref)

	result := Result{
		Success:       true,
		Message:       deterministic,
		DrugName:      cell.DrugName,
		Category:      cell.Attribute,
		CategoryLabel: cell.Attribute.Label(),
		Confidence:    minInt(cell.EntityConfidence, cell.CategoryConfidence),
		Narrowed:      ref.Narrowed,
	}

	if e.backend == nil {
		return result
	}

	genCtx, cancel := context.WithTimeout(ctx, e.genTimeout)
	defer cancel()

	answer, err := e.backend.Generate(genCtx, e.buildPrompt(query, cell, ref, qc))
	if err != nil {
		e.logger.Warn("generative backend failed, using deterministic answer",
			zap.String("drug", cell.DrugName),
			zap.String("category", string(cell.Attribute)),
			zap.Error(err),
		)
		return result
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return result
	}
	result.Message = answer
	result.UsedGenerative = true
	return result
}

// deterministicMessage formats the refined text with category-specific safety
// framing.
func (e *Engine) deterministicMessage(cell Cell, ref Refinement) string {
	var b strings.Builder
	switch {
	case cell.Attribute.IsContraindication():
		fmt.Fprintf(&b, "⚠️ CHỐNG CHỈ ĐỊNH — %s\n", cell.DrugName)
		b.WriteString("Không được dùng thuốc khi có bất kỳ yếu tố nào dưới đây.\n")
		b.WriteString(ref.Text)
	case cell.Attribute.IsDosage():
		fmt.Fprintf(&b, "%s — %s\n", cell.DrugName, cell.Attribute.Label())
		b.WriteString(ref.Text)
		b.WriteString("\nLuôn xác nhận lại liều với bác sĩ hoặc dược sĩ lâm sàng trước khi dùng.")
	default:
		fmt.Fprintf(&b, "%s — %s\n", cell.DrugName, cell.Attribute.Label())
		b.WriteString(ref.Text)
	}
	return b.String()
}

// buildPrompt bounds what the generative backend sees: the question, the
// resolved fact, and the detected context. The instruction forbids facts
// outside the extracted text.
func (e *Engine) buildPrompt(query string, cell Cell, ref Refinement, qc QueryContext) string {
	var b strings.Builder
	b.WriteString("Bạn là dược sĩ nhi khoa. Trả lời câu hỏi dưới đây bằng tiếng Việt, ")
	b.WriteString("tối đa 150 từ, CHỈ dựa trên phần trích xuất được cung cấp, ")
	b.WriteString("không thêm bất kỳ thông tin nào ngoài đó.\n\n")
	fmt.Fprintf(&b, "Câu hỏi: %s\n", query)
	fmt.Fprintf(&b, "Thuốc: %s\n", cell.DrugName)
	fmt.Fprintf(&b, "Mục tra cứu: %s\n", cell.Attribute.Label())
	if kws := qc.Keywords(); len(kws) > 0 {
		fmt.Fprintf(&b, "Ngữ cảnh người hỏi: %s\n", strings.Join(kws, ", "))
	}
	fmt.Fprintf(&b, "Trích xuất:\n%s\n", ref.Text)
	if cell.Attribute.IsContraindication() {
		b.WriteString("\nMở đầu câu trả lời bằng cảnh báo chống chỉ định rõ ràng.")
	}
	if cell.Attribute.IsDosage() {
		b.WriteString("\nKết thúc bằng lời nhắc xác nhận liều với bác sĩ hoặc dược sĩ.")
	}
	return b.String()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
