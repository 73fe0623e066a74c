package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/satriahrh/cocoa-fruit/teacher/domain"
	"github.com/satriahrh/cocoa-fruit/teacher/usecase"
	"github.com/satriahrh/cocoa-fruit/teacher/utils/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageRenderer implements echo.Renderer for the single page.
type PageRenderer struct {
	templates *template.Template
	markdown  goldmark.Markdown
}

func NewPageRenderer() *PageRenderer {
	r := &PageRenderer{
		// raw HTML in answers is dropped, goldmark is not configured with WithUnsafe
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
	r.templates = template.Must(template.New("").Funcs(template.FuncMap{
		"markdown": r.Markdown,
	}).ParseFS(templateFS, "templates/*.html"))
	return r
}

// Markdown renders text to HTML. Conversion errors fall back to escaped text.
func (r *PageRenderer) Markdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(text), &buf); err != nil {
		log.With(zap.Error(err)).Warn("Error rendering markdown")
		return template.HTML("<pre>" + template.HTMLEscapeString(text) + "</pre>")
	}
	return template.HTML(buf.String())
}

func (r *PageRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

type pageData struct {
	Title     string
	Semesters []domain.Semester
	Prompts   []string
	State     usecase.Snapshot
	Notice    string
}

func (h *TutorHandler) Page(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", pageData{
		Title:     h.title,
		Semesters: domain.Semesters(),
		Prompts:   h.tutor.Prompts(),
		State:     h.tutor.Snapshot(),
		Notice:    c.QueryParam("notice"),
	})
}

// SubmitAsk handles the page form: store every field, then run.
func (h *TutorHandler) SubmitAsk(c echo.Context) error {
	ctx := c.Request().Context()

	semester, err := domain.ParseSemester(c.FormValue("semester"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid semester").SetInternal(err)
	}
	if _, err := h.tutor.SetSemester(ctx, semester); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid semester").SetInternal(err)
	}
	if v := c.FormValue("role"); v != "" {
		h.tutor.SetRole(ctx, v)
	}
	if v := c.FormValue("teaching_style"); v != "" {
		h.tutor.SetTeachingStyle(ctx, v)
	}
	h.tutor.SetQuestion(ctx, c.FormValue("question"))

	_, err = h.tutor.Run(ctx)
	if errors.Is(err, usecase.ErrBusy) {
		return c.Redirect(http.StatusSeeOther, "/?notice=busy")
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *TutorHandler) SubmitSelect(c echo.Context) error {
	if _, err := h.tutor.SelectPrompt(c.Request().Context(), c.FormValue("prompt")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown prompt").SetInternal(err)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
