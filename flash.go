package yupee

import (
	"context"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
)

const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// Flash is a toast shown by ToastDialogs.
type Flash struct {
	Level   string
	Message string
}

// toastDismissMillis is how long page scripts keep a toast visible.
const toastDismissMillis = "3000"

// RenderFlashes renders one toast element per flash.
func RenderFlashes(flashes []Flash) string {
	var sb strings.Builder
	for _, f := range flashes {
		sb.WriteString(`<div class="toast toast-` + html.EscapeString(f.Level) + `"`)
		sb.WriteString(` data-auto-dismiss="` + toastDismissMillis + `">`)
		sb.WriteString(html.EscapeString(f.Message))
		sb.WriteString(`</div>`)
	}
	return sb.String()
}

// ToastContainer is the element toasts are appended to. ToastDialogs adds
// one to the body when the page has none.
func ToastContainer() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div id="toasts" class="toast-container"></div>`)
		return err
	})
}
