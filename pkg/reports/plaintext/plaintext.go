package plaintext

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"text/template"
	"time"

	"github.com/BayLibre/kernelci-backend/pkg/assets"
	kcimodel "github.com/BayLibre/kernelci-backend/pkg/model"
)

var (
	dayFormat = "2006-01-02"

	funcMap = template.FuncMap{
		"sortedSuites": kcimodel.SortedSuites,
		"escape":       escapeText,
		"date":         formatDate,
	}

	reportTemplate = template.Must(
		template.New("testreport").Funcs(funcMap).Parse(assets.TestReport))
)

//escapeText neutralises markup characters in text fields submitted by the labs
func escapeText(text string) string {
	return html.EscapeString(text)
}

func formatDate(t time.Time) string {
	return t.Format(dayFormat)
}

//Render produces the plain-text test report for the given report context. Rendering is
//deterministic: the same context always yields byte-identical output
func Render(ctx kcimodel.ReportContext) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

//Subject creates the report email subject line, dropping the failed/skipped fragments
//when their counts are zero
func Subject(ctx kcimodel.ReportContext, labName string) string {
	tests, pass, fail, skip := ctx.Totals()
	fragments := []string{fmt.Sprintf("%d passed", pass)}
	if fail > 0 {
		fragments = append(fragments, fmt.Sprintf("%d failed", fail))
	}
	if skip > 0 {
		fragments = append(fragments, fmt.Sprintf("%d skipped", skip))
	}
	subject := fmt.Sprintf("%s test results: %d tests: %s (%s)",
		ctx.Tree, tests, strings.Join(fragments, ", "), ctx.Kernel)
	if labName != "" {
		subject = fmt.Sprintf("%s - %s", subject, labName)
	}
	return subject
}

//Email assembles the full report email text: the subject line, a summary of the boards
//and labs covered, the rendered report and an optional contact footer
func Email(ctx kcimodel.ReportContext, labName, infoEmail string) (string, error) {
	body, err := Render(ctx)
	if err != nil {
		return "", err
	}
	unique := kcimodel.GetUniqueData(ctx.TestSuites)

	var buf bytes.Buffer
	buf.WriteString(Subject(ctx, labName))
	buf.WriteString("\n\n")
	if boards, labs := unique.Boards.Len(), unique.Labs.Len(); boards > 0 || labs > 0 {
		fmt.Fprintf(&buf, "Tested: %d unique boards, %d labs\n\n", boards, labs)
	}
	buf.WriteString(body)
	if infoEmail != "" {
		buf.WriteString("\n---\n")
		fmt.Fprintf(&buf, "For more info write to <%s>\n", infoEmail)
	}
	return buf.String(), nil
}
