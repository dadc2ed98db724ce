package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"io"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// DeliveryData is the data passed to the mail_delivered templates.
type DeliveryData struct {
	AppName          string    `json:"AppName"`
	RecipientName    string    `json:"RecipientName"`
	RecipientAddress string    `json:"RecipientAddress"`
	SenderName       string    `json:"SenderName"`
	SenderAddress    string    `json:"SenderAddress"`
	Subject          string    `json:"Subject"`
	Type             string    `json:"Type"`
	Priority         string    `json:"Priority"`
	MailURL          string    `json:"MailURL"`
	SentAt           time.Time `json:"SentAt"`
}

// ToMap converts DeliveryData to the map carried in a NotificationJob.
func ToMap(d DeliveryData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// formatTime accepts a time.Time or an RFC3339 string, since job data is
// decoded from JSON.
func formatTime(v any, layout string) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(layout)
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return t
		}
		return parsed.Format(layout)
	}
	return fmt.Sprint(v)
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() {
			return fallback
		}
		zero := reflect.Zero(rv.Type()).Interface()
		if reflect.DeepEqual(value, zero) {
			return fallback
		}
		return value
	}
}

// ---- FuncMaps ----

func baseFuncs() map[string]any {
	return map[string]any{
		"now":        func() time.Time { return time.Now().UTC() },
		"formatTime": formatTime,
		"upper":      strings.ToUpper,
		"default":    defaultFn,
	}
}

var (
	htmlFuncMap = htmpl.FuncMap(baseFuncs())
	textFuncMap = texttpl.FuncMap(baseFuncs())
)

// ---- Template names ----

const MailDelivered = "mail_delivered"

// set is the parsed subject/text/html triple of one notification.
type set struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

// parsed is filled at init; a broken embedded template fails the binary at
// startup rather than on the first delivery.
var parsed = map[string]*set{}

func init() {
	for _, name := range []string{MailDelivered} {
		parsed[name] = mustParse(name)
	}
}

func mustParse(name string) *set {
	parseText := func(suffix string) *texttpl.Template {
		f := name + suffix
		return texttpl.Must(texttpl.New(f).Funcs(textFuncMap).ParseFS(FS, f))
	}
	html := name + ".html.tmpl"
	return &set{
		subject: parseText(".subject.tmpl"),
		text:    parseText(".text.tmpl"),
		html:    htmpl.Must(htmpl.New(html).Funcs(htmlFuncMap).ParseFS(FS, html)),
	}
}

// Known reports whether name has embedded templates.
func Known(name string) bool {
	_, ok := parsed[name]
	return ok
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func execute(t executor, part string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", part, err)
	}
	return buf.String(), nil
}

// Render executes the subject, text and html templates of name. The subject
// is collapsed to a single trimmed line.
func Render(name string, data any) (subject string, text string, html string, err error) {
	t, ok := parsed[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown template %q", name)
	}
	if subject, err = execute(t.subject, name+" subject", data); err != nil {
		return "", "", "", err
	}
	subject = strings.Join(strings.Fields(subject), " ")
	if text, err = execute(t.text, name+" text", data); err != nil {
		return "", "", "", err
	}
	if html, err = execute(t.html, name+" html", data); err != nil {
		return "", "", "", err
	}
	return subject, text, html, nil
}
