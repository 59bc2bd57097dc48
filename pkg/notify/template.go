package notify

import (
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const DefaultTemplate = `{{ if .Event.Recovered }}RECOVERED{{ else if .Event.Failing }}FAILING{{ else }}CHANGED{{ end }} {{ .Event.Check }}
{{- range .Event.Changes }}
{{ .Kind }} {{ .Path }}{{ if eq .Kind "changed" }}: {{ .Old }} -> {{ .New }}{{ else if eq .Kind "added" }}: {{ .New }}{{ end }}
{{- end }}`

type templateData struct {
	Env   map[string]string
	Event Event
	// Snapshot is the new snapshot as plain Go data for sprig functions.
	Snapshot map[string]any
}

func parseTemplate(name, text string) (*template.Template, error) {
	if text == "" {
		text = DefaultTemplate
	}
	return template.New(name).Funcs(sprig.TxtFuncMap()).Parse(text)
}

func render(tpl *template.Template, ev Event) (string, error) {
	data := templateData{
		Env:      make(map[string]string),
		Event:    ev,
		Snapshot: ev.Snapshot.ToGo(),
	}

	for _, e := range os.Environ() {
		e := strings.SplitN(e, "=", 2)
		if len(e) > 1 {
			data.Env[e[0]] = e[1]
		}
	}

	var out strings.Builder
	if err := tpl.Execute(&out, &data); err != nil {
		return "", err
	}
	return out.String(), nil
}
