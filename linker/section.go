package linker

import (
	"bytes"
	"html/template"
	"strings"

	"parentguide-backend/catalog"
)

// Labels holds the visible text of a rendered resource section.
type Labels struct {
	Title       string
	Levels      map[catalog.Level]string
	Phone       string
	Eligibility string
	Footer      string
}

// DefaultLabels returns the English labels.
func DefaultLabels() Labels {
	return Labels{
		Title: "Helpful Resources",
		Levels: map[catalog.Level]string{
			catalog.LevelLocal:    "Local Resources",
			catalog.LevelCounty:   "County Resources",
			catalog.LevelState:    "State Resources",
			catalog.LevelFederal:  "Federal Resources",
			catalog.LevelAdvocacy: "Advocacy Organizations",
			catalog.LevelLegal:    "Legal Help",
		},
		Phone:       "Phone",
		Eligibility: "Eligibility",
		Footer:      "These resources are provided for information only and are not a complete list. Please verify details directly with each organization.",
	}
}

func (l Labels) level(level catalog.Level) string {
	if s := l.Levels[level]; s != "" {
		return s
	}
	return DefaultLabels().Levels[level]
}

type group struct {
	Level     string
	Label     string
	Resources []catalog.Resource
}

type sectionData struct {
	Class  string
	Title  string
	Groups []group
	Labels Labels
}

var sectionTmpl = template.Must(template.New("section").Funcs(template.FuncMap{
	"tel": telURL,
}).Parse(`<div class="{{.Class}}">
<h3>{{.Title}}</h3>
{{- range .Groups}}
<details class="resource-level resource-level-{{.Level}}" open>
<summary>{{.Label}}</summary>
<ul>
{{- range .Resources}}
<li class="resource-card">
{{- if .URL}}<a href="{{.URL}}" target="_blank" rel="noopener noreferrer">{{.Name}}</a>{{else}}<strong>{{.Name}}</strong>{{end}}
{{- if .Type}} <span class="resource-type">{{.Type}}</span>{{end}}
{{- if .Description}}<p>{{.Description}}</p>{{end}}
{{- if .Phone}}<p class="resource-phone">{{$.Labels.Phone}}: <a href="{{tel .Phone}}">{{.Phone}}</a></p>{{end}}
{{- if .Eligibility}}<p class="resource-eligibility">{{$.Labels.Eligibility}}: {{.Eligibility}}</p>{{end -}}
</li>
{{- end}}
</ul>
</details>
{{- end}}
{{- if .Labels.Footer}}
<p class="resource-disclaimer">{{.Labels.Footer}}</p>
{{- end}}
</div>`))

// telURL builds a tel: href from a formatted phone string. html/template
// only trusts http, https and mailto, so the scheme is vouched for here.
func telURL(phone string) template.URL {
	return template.URL("tel:" + telDigits(phone))
}

// renderSection renders resources grouped by level in assembly order.
func renderSection(byLevel map[catalog.Level][]catalog.Resource, labels Labels) (string, error) {
	data := sectionData{Class: "resource-section", Title: labels.Title, Labels: labels}
	for _, level := range catalog.Levels {
		if list := byLevel[level]; len(list) > 0 {
			data.Groups = append(data.Groups, group{Level: string(level), Label: labels.level(level), Resources: list})
		}
	}
	return execute(data)
}

// RenderList renders a flat titled resource list, used for emergency
// contacts. The footer is omitted.
func RenderList(title string, resources []catalog.Resource, labels Labels) string {
	if len(resources) == 0 {
		return ""
	}
	labels.Footer = ""
	data := sectionData{
		Class:  "resource-section emergency-resources",
		Title:  title,
		Labels: labels,
		Groups: []group{{Level: "emergency", Label: title, Resources: resources}},
	}
	out, err := execute(data)
	if err != nil {
		return ""
	}
	return out
}

func execute(data sectionData) (string, error) {
	var buf bytes.Buffer
	if err := sectionTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
