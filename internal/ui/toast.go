package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/tphummel/lab_templates/internal/appctx"
)

// Toaster prints controller notifications as one-line toasts. It satisfies
// controller.Notifier.
type Toaster struct {
	mu sync.Mutex
	r  *Renderer
}

func NewToaster(w io.Writer, app *appctx.Context) *Toaster {
	return &Toaster{r: NewRenderer(w, app)}
}

func (t *Toaster) Success(key string, args map[string]string) {
	t.print(t.r.style(t.r.p.Success).Bold(true).Render("✓"), key, args)
}

func (t *Toaster) Error(key string, args map[string]string) {
	t.print(t.r.style(t.r.p.Error).Bold(true).Render("✗"), key, args)
}

func (t *Toaster) print(icon, key string, args map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.r.w, icon+" "+t.r.style(t.r.p.Text).Render(t.r.t(key, args)))
}
