package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"leave_form_bot/internal/domain/form"
)

// Prompter asks the operator for pre-flight confirmations. Reads are line
// oriented so piped input works the same as a terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Confirm shows the prompt and accepts y, yes, 是 or a plain Enter as yes.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	fmt.Fprint(p.out, prompt)

	line, err := p.in.ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	if err != nil && answer == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return answer == "" || answer == "y" || answer == "yes" || answer == "是", nil
}

// SelectMode asks for the run mode until the operator answers 0 or 1.
func (p *Prompter) SelectMode() (form.Mode, error) {
	fmt.Fprintln(p.out, "\n"+strings.Repeat("-", 60))
	for {
		fmt.Fprint(p.out, "請選擇執行模式 (0=測試, 1=正式): ")

		line, err := p.in.ReadString('\n')
		switch strings.TrimSpace(line) {
		case "0":
			return form.ModeTest, nil
		case "1":
			return form.ModeLive, nil
		}
		if err != nil {
			return form.ModeTest, fmt.Errorf("failed to read mode selection: %w", err)
		}
		fmt.Fprintln(p.out, "請輸入 0 或 1")
	}
}
