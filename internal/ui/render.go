package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tphummel/lab_templates/internal/appctx"
	"github.com/tphummel/lab_templates/internal/filter"
	"github.com/tphummel/lab_templates/internal/i18n"
	"github.com/tphummel/lab_templates/internal/models"
)

const dateLayout = "2006-01-02"

// Renderer writes styled views to one output. Colour is dropped when the
// output is not a terminal.
type Renderer struct {
	w  io.Writer
	lg *lipgloss.Renderer
	p  Palette
	tr *i18n.Translator
}

// NewRenderer styles output for w with the app's colour, theme and locale.
func NewRenderer(w io.Writer, app *appctx.Context) *Renderer {
	lg := lipgloss.NewRenderer(w)
	return &Renderer{
		w:  w,
		lg: lg,
		p:  PaletteFor(app.Color(), app.IsDark(lg.HasDarkBackground())),
		tr: app.Translator(),
	}
}

func (r *Renderer) t(key string, args map[string]string) string { return r.tr.T(key, args) }

func (r *Renderer) style(c lipgloss.Color) lipgloss.Style {
	return r.lg.NewStyle().Foreground(c)
}

// Labs prints labs as a table. filtered selects the empty-state message.
func (r *Renderer) Labs(labs []models.Lab, filtered bool) {
	if len(labs) == 0 {
		key := "labs.noLabs"
		if filtered {
			key = "labs.noMatch"
		}
		fmt.Fprintln(r.w, r.style(r.p.Muted).Render(r.t(key, nil)))
		return
	}

	header := []string{"ID", r.t("labs.name", nil), r.t("labs.baseImage", nil), r.t("labs.estimatedTime", nil),
		r.t("labs.status", nil), r.t("labs.createdAt", nil)}
	rows := make([][]string, 0, len(labs))
	for _, lab := range labs {
		rows = append(rows, []string{
			r.style(r.p.Muted).Render(lab.ID),
			r.style(r.p.Text).Bold(true).Render(lab.Name),
			lab.BaseImage,
			r.t("labs.minutes", map[string]string{"count": strconv.Itoa(lab.EstimatedTime)}),
			r.status(lab.IsActive),
			lab.CreatedAt.Local().Format(dateLayout),
		})
	}
	r.table(header, rows)
}

// Pager prints the page summary and the page buttons, current page marked.
func (r *Renderer) Pager(page, totalPages, totalCount int) {
	if totalPages <= 1 {
		return
	}
	summary := r.t("common.pageOf", map[string]string{
		"page":  strconv.Itoa(page),
		"total": strconv.Itoa(totalPages),
		"count": r.tr.Number(totalCount),
	})

	var buttons []string
	for _, n := range filter.VisiblePages(page, totalPages) {
		switch {
		case n == filter.Ellipsis:
			buttons = append(buttons, r.style(r.p.Muted).Render("..."))
		case n == page:
			buttons = append(buttons, r.style(r.p.Accent).Bold(true).Render("["+strconv.Itoa(n)+"]"))
		default:
			buttons = append(buttons, strconv.Itoa(n))
		}
	}
	fmt.Fprintln(r.w, r.style(r.p.Muted).Render(summary)+"  "+strings.Join(buttons, " "))
}

// Lab prints one lab's fields followed by its setup steps.
func (r *Renderer) Lab(lab models.Lab, steps []models.SetupStep) {
	title := r.style(r.p.Accent).Bold(true).Render(lab.Name)
	fmt.Fprintln(r.w, title+"  "+r.status(lab.IsActive))
	if lab.Description != "" {
		fmt.Fprintln(r.w, r.style(r.p.Text).Render(lab.Description))
	}

	label := r.style(r.p.Muted)
	fields := [][2]string{
		{"ID", lab.ID},
		{r.t("labs.baseImage", nil), lab.BaseImage},
		{r.t("labs.estimatedTime", nil), r.t("labs.minutes", map[string]string{"count": strconv.Itoa(lab.EstimatedTime)})},
		{r.t("labs.createdAt", nil), lab.CreatedAt.Local().Format(dateLayout)},
	}
	width := 0
	for _, f := range fields {
		width = max(width, lipgloss.Width(f[0]))
	}
	for _, f := range fields {
		fmt.Fprintln(r.w, label.Render(pad(f[0], width))+"  "+f[1])
	}

	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, r.style(r.p.Accent).Render(r.t("labs.setupSteps", nil)))
	r.Steps(steps)
}

// Steps prints setup steps in the order given.
func (r *Renderer) Steps(steps []models.SetupStep) {
	if len(steps) == 0 {
		fmt.Fprintln(r.w, r.style(r.p.Muted).Render(r.t("labs.noSteps", nil)))
		return
	}

	header := []string{"#", "ID", r.t("steps.title", nil), r.t("steps.command", nil), r.t("steps.exitCode", nil),
		r.t("steps.retries", nil), r.t("steps.timeout", nil), r.t("steps.continueOnFailure", nil)}
	rows := make([][]string, 0, len(steps))
	for _, s := range steps {
		rows = append(rows, []string{
			r.style(r.p.Accent).Render(strconv.Itoa(s.StepOrder)),
			r.style(r.p.Muted).Render(s.ID),
			s.Title,
			truncate(s.SetupCommand, 48),
			strconv.Itoa(s.ExpectedExitCode),
			strconv.Itoa(s.RetryCount),
			r.t("steps.seconds", map[string]string{"count": strconv.Itoa(s.TimeoutSeconds)}),
			r.yesNo(s.ContinueOnFailure),
		})
	}
	r.table(header, rows)
}

// Settings prints the current preferences.
func (r *Renderer) Settings(s appctx.Settings) {
	sidebar := r.t("settings.sidebarCollapsed", nil)
	if s.SidebarOpen {
		sidebar = r.t("settings.sidebarOpen", nil)
	}
	rows := [][2]string{
		{r.t("settings.theme", nil), string(s.Theme)},
		{r.t("settings.color", nil), r.style(r.p.Accent).Render(string(s.Color))},
		{r.t("settings.locale", nil), s.Locale},
		{r.t("settings.sidebar", nil), sidebar},
	}
	width := 0
	for _, row := range rows {
		width = max(width, lipgloss.Width(row[0]))
	}
	for _, row := range rows {
		fmt.Fprintln(r.w, r.style(r.p.Muted).Render(pad(row[0], width))+"  "+row[1])
	}
}

// Message prints a plain translated line.
func (r *Renderer) Message(key string, args map[string]string) {
	fmt.Fprintln(r.w, r.style(r.p.Text).Render(r.t(key, args)))
}

func (r *Renderer) status(active bool) string {
	if active {
		return r.style(r.p.Success).Render(r.t("common.active", nil))
	}
	return r.style(r.p.Muted).Render(r.t("common.inactive", nil))
}

func (r *Renderer) yesNo(v bool) string {
	if v {
		return r.t("common.yes", nil)
	}
	return r.t("common.no", nil)
}

func (r *Renderer) table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	head := r.style(r.p.Muted).Bold(true)
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = head.Render(pad(h, widths[i]))
	}
	fmt.Fprintln(r.w, strings.TrimRight(strings.Join(cells, "  "), " "))

	rule := make([]string, len(header))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	fmt.Fprintln(r.w, r.style(r.p.Border).Render(strings.Join(rule, "  ")))

	for _, row := range rows {
		for i, cell := range row {
			cells[i] = pad(cell, widths[i])
		}
		fmt.Fprintln(r.w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

// pad right-fills s with spaces to width visible cells.
func pad(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
