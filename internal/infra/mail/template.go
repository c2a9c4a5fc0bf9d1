package mail

import (
	"fmt"
	"html/template"
	"strings"

	"leave_form_bot/internal/domain/summary"
)

type reasonRow struct {
	DayName string
	Text    string
}

type failureRow struct {
	DayName string
	Reason  string
}

type templateData struct {
	Preheader     string
	SubmittedDays string
	Reasons       []reasonRow
	AllSuccess    bool
	Successful    []string
	Failures      []failureRow
}

// Render produces the HTML body of the summary mail.
func Render(rec *summary.Record) (string, error) {
	data := templateData{
		Preheader:  fmt.Sprintf("本次提交：%d 成功, %d 失敗", len(rec.SuccessfulDays), len(rec.Failed)),
		AllSuccess: rec.AllSuccess,
		Successful: rec.SuccessfulDays,
	}

	if len(rec.SubmittedDays) > 0 {
		data.SubmittedDays = strings.Join(rec.SubmittedDays, "、")
	} else {
		data.SubmittedDays = "（無）"
	}

	if rec.ReasonSaturday != "" {
		data.Reasons = append(data.Reasons, reasonRow{DayName: "星期六", Text: rec.ReasonSaturday})
	}
	if rec.ReasonSunday != "" {
		data.Reasons = append(data.Reasons, reasonRow{DayName: "星期日", Text: rec.ReasonSunday})
	}

	for _, task := range rec.Failed {
		data.Failures = append(data.Failures, failureRow{DayName: task.DayName, Reason: failureText(task.Stage)})
	}

	var b strings.Builder
	if err := summaryTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render summary mail: %w", err)
	}
	return b.String(), nil
}

// failureText maps a failure stage to the operator-facing explanation.
func failureText(stage summary.FailureStage) string {
	switch stage {
	case summary.StagePreparation:
		return "資料準備失敗 (URL/欄位錯誤)"
	case summary.StageSubmission:
		return "提交失敗 (網路或伺服器錯誤)"
	}
	return "未知失敗"
}

// summaryTemplate keeps a table skeleton for mail client compatibility.
var summaryTemplate = template.Must(template.New("summary").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <meta name="color-scheme" content="light dark">
  <title>表單提交總結報告</title>
  <style>
    body { margin:0; background:#F6F8FC; color:#111827; font-family:-apple-system,"Segoe UI",Roboto,"Noto Sans TC","PingFang TC","Microsoft JhengHei",sans-serif; line-height:1.65; }
    .wrapper { width:100%; padding:28px 12px; }
    .container { max-width:720px; margin:0 auto; background:#FFFFFF; border:1px solid #E5E7EB; border-radius:12px; overflow:hidden; }
    .header { padding:24px 28px; border-bottom:1px solid #E5E7EB; }
    .eyebrow { font-size:12px; letter-spacing:.08em; text-transform:uppercase; color:#2563EB; font-weight:700; margin-bottom:6px; }
    .title { font-size:22px; font-weight:800; color:#0F172A; }
    .content { padding:8px 28px 28px 28px; }
    .section { padding:18px 0; }
    .section + .section { border-top:1px solid #EEF2F7; }
    .section-title { font-size:15px; font-weight:800; color:#0F172A; margin-bottom:10px; padding-left:10px; border-left:3px solid #2563EB; }
    .card { background:#F9FAFB; border:1px solid #E5E7EB; border-radius:10px; padding:14px 16px; }
    .chip { display:inline-block; padding:8px 12px; border-radius:999px; font-size:12px; font-weight:700; border:1px solid #C7D2FE; background:#EEF2FF; color:#1E3A8A; margin-right:8px; white-space:nowrap; }
    .badge { display:inline-block; padding:7px 12px; border-radius:999px; font-size:13px; font-weight:800; }
    .badge.success { color:#065F46; background:#ECFDF5; border:1px solid #A7F3D0; }
    .badge.failure { color:#7F1D1D; background:#FEF2F2; border:1px solid #FECACA; }
    .hint { color:#4B5563; font-size:13px; margin-top:6px; }
    .reasons, .failures-list, .success-list { list-style:none; padding:0; margin:8px 0 0 0; }
    .reasons li { background:#F9FAFB; border:1px solid #E5E7EB; border-radius:10px; padding:12px; margin-bottom:8px; }
    .failure-item { background:#FEF2F2; border:1px solid #FECACA; border-radius:10px; padding:12px; margin-bottom:8px; }
    .failure-reason { color:#991B1B; font-weight:700; font-size:13px; }
    .success-item { display:inline-block; background:#D1FAE5; border:1px solid #6EE7B7; border-radius:999px; padding:8px 14px; margin:0 12px 12px 0; font-size:12px; font-weight:700; color:#065F46; white-space:nowrap; }
    .result-section { margin-top:8px; }
    .result-label { font-weight:700; font-size:14px; color:#0F172A; margin-bottom:8px; }
    .footer { padding:16px 28px; border-top:1px solid #E5E7EB; color:#6B7280; font-size:12px; text-align:center; background:#FAFAFA; }
    .preheader { display:none; visibility:hidden; opacity:0; height:0; width:0; overflow:hidden; }
  </style>
</head>
<body>
  <span class="preheader">{{.Preheader}}</span>
  <table role="presentation" class="wrapper" cellpadding="0" cellspacing="0" width="100%">
    <tr>
      <td align="center">
        <table role="presentation" class="container" cellpadding="0" cellspacing="0" width="100%">
          <tr>
            <td class="header">
              <div class="eyebrow">Google Form Auto-Filler</div>
              <div class="title">表單提交總結報告</div>
            </td>
          </tr>
          <tr>
            <td class="content">
              <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
                <tr>
                  <td class="section">
                    <div class="section-title">提交詳情</div>
                    <div class="card"><p><b>本次提交的表單：</b>{{.SubmittedDays}}</p></div>
                  </td>
                </tr>
{{- if .Reasons}}
                <tr>
                  <td class="section">
                    <div class="section-title">請假理由</div>
                    <ul class="reasons">
{{- range .Reasons}}
                      <li><span class="chip">{{.DayName}}</span><span class="reason">{{.Text}}</span></li>
{{- end}}
                    </ul>
                  </td>
                </tr>
{{- end}}
                <tr>
                  <td class="section">
                    <div class="section-title">執行結果</div>
{{- if .AllSuccess}}
                    <div class="status">
                      <span class="badge success">全數成功</span>
                      <p class="hint">已成功提交所有指定表單。</p>
                    </div>
{{- else}}
                    <div class="status">
                      <span class="badge failure">未全數成功</span>
                      <div class="result-section">
                        <p class="result-label">成功部分：</p>
{{- if .Successful}}
                        <ul class="success-list">
{{- range .Successful}}
                          <li class="success-item">{{.}}</li>
{{- end}}
                        </ul>
{{- else}}
                        <p class="hint">無</p>
{{- end}}
                      </div>
                      <div class="result-section">
                        <p class="result-label">失敗部分：</p>
                        <ul class="failures-list">
{{- range .Failures}}
                          <li class="failure-item"><span class="chip">{{.DayName}}</span><span class="failure-reason">{{.Reason}}</span></li>
{{- end}}
                        </ul>
                        <p class="hint">請查看程式的日誌輸出以了解詳細錯誤原因。</p>
                      </div>
                    </div>
{{- end}}
                  </td>
                </tr>
              </table>
            </td>
          </tr>
          <tr>
            <td class="footer">這是一封自動發送的郵件，請勿直接回覆。</td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`))
