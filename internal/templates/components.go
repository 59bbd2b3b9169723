// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"strconv"

	"github.com/a-h/templ"
)

// PageHeader renders a page title with an optional description.
func PageHeader(title, description string) templ.Component {
	return component(func(w *writer) {
		w.raw(`<header class="page-header"><h1 class="page-title">`)
		w.text(title)
		w.raw(`</h1>`)
		if description != "" {
			w.raw(`<p class="page-description">`)
			w.text(description)
			w.raw(`</p>`)
		}
		w.raw(`</header>`)
	})
}

// StatColor selects the accent of a stat card.
type StatColor string

// Stat card accents.
const (
	StatBlue   StatColor = "blue"
	StatTeal   StatColor = "teal"
	StatIndigo StatColor = "indigo"
)

func (c StatColor) valid() bool {
	return c == StatBlue || c == StatTeal || c == StatIndigo
}

// StatCardProps configures a StatCard.
type StatCardProps struct {
	Title string
	Value string
	Icon  string
	Color StatColor
}

// StatCard renders a single dashboard metric. Unknown colors fall back to blue.
func StatCard(p StatCardProps) templ.Component {
	return component(func(w *writer) {
		color := p.Color
		if !color.valid() {
			color = StatBlue
		}
		w.raw(`<div`)
		w.attr("class", "stat-card stat-card--"+string(color))
		w.raw(`><div class="stat-card-body"><p class="stat-card-title">`)
		w.text(p.Title)
		w.raw(`</p><p class="stat-card-value">`)
		w.text(p.Value)
		w.raw(`</p></div>`)
		if p.Icon != "" {
			w.raw(`<div class="stat-card-icon">`)
			w.render(Icon(p.Icon, ""))
			w.raw(`</div>`)
		}
		w.raw(`</div>`)
	})
}

// StatCardGrid lays out stat cards in the given number of columns (1 to 4).
func StatCardGrid(columns int, cards ...templ.Component) templ.Component {
	return component(func(w *writer) {
		if columns < 1 {
			columns = 1
		}
		if columns > 4 {
			columns = 4
		}
		w.raw(`<div`)
		w.attr("class", "stat-grid stat-grid--cols-"+strconv.Itoa(columns))
		w.raw(`>`)
		for _, c := range cards {
			w.render(c)
		}
		w.raw(`</div>`)
	})
}

// SectionCard renders a titled card around body.
func SectionCard(title, description, icon string, body templ.Component) templ.Component {
	return component(func(w *writer) {
		w.raw(`<section class="section-card"><div class="section-card-header">`)
		if icon != "" {
			w.render(Icon(icon, "section-card-icon"))
		}
		w.raw(`<div><h2 class="section-card-title">`)
		w.text(title)
		w.raw(`</h2>`)
		if description != "" {
			w.raw(`<p class="section-card-description">`)
			w.text(description)
			w.raw(`</p>`)
		}
		w.raw(`</div></div><div class="section-card-body">`)
		w.render(body)
		w.raw(`</div></section>`)
	})
}

// QuickActionCardProps configures a QuickActionCard.
type QuickActionCardProps struct {
	Href        string
	Title       string
	Description string
	Icon        string
	IconColor   string
	IconBgColor string
}

// QuickActionCard renders a navigational card linking to Href.
func QuickActionCard(p QuickActionCardProps) templ.Component {
	return component(func(w *writer) {
		w.raw(`<a class="quick-action-card"`)
		w.href(p.Href)
		w.raw(`><span`)
		w.attr("class", classes("quick-action-icon", p.IconColor, p.IconBgColor))
		w.raw(`>`)
		w.render(Icon(p.Icon, ""))
		w.raw(`</span><span class="quick-action-text"><span class="quick-action-title">`)
		w.text(p.Title)
		w.raw(`</span>`)
		if p.Description != "" {
			w.raw(`<span class="quick-action-description">`)
			w.text(p.Description)
			w.raw(`</span>`)
		}
		w.raw(`</span></a>`)
	})
}

// AlertVariant selects the styling of an AuthAlert.
type AlertVariant string

// Alert variants.
const (
	AlertError   AlertVariant = "error"
	AlertInfo    AlertVariant = "info"
	AlertWarning AlertVariant = "warning"
	AlertSuccess AlertVariant = "success"
)

// AuthAlert renders a message box for auth forms. An empty message renders nothing.
func AuthAlert(variant AlertVariant, message string) templ.Component {
	return component(func(w *writer) {
		if message == "" {
			return
		}
		switch variant {
		case AlertError, AlertInfo, AlertWarning, AlertSuccess:
		default:
			variant = AlertInfo
		}
		role := "status"
		if variant == AlertError {
			role = "alert"
		}
		w.raw(`<div`)
		w.attr("class", "alert alert--"+string(variant))
		w.attr("role", role)
		w.raw(`>`)
		w.render(Icon(IconAlert, "alert-icon"))
		w.raw(`<span>`)
		w.text(message)
		w.raw(`</span></div>`)
	})
}

// BadgeVariant selects the shape of a Badge.
type BadgeVariant string

// Badge variants.
const (
	BadgeDefault      BadgeVariant = "default"
	BadgeNotification BadgeVariant = "notification"
	BadgeStatus       BadgeVariant = "status"
	BadgeOutline      BadgeVariant = "outline"
)

// BadgeColor selects the color of a Badge.
type BadgeColor string

// Badge colors.
const (
	BadgeColorDefault BadgeColor = "default"
	BadgeColorSuccess BadgeColor = "success"
	BadgeColorWarning BadgeColor = "warning"
	BadgeColorError   BadgeColor = "error"
	BadgeColorBlue    BadgeColor = "blue"
)

// Badge renders a small inline label.
func Badge(variant BadgeVariant, color BadgeColor, label string) templ.Component {
	return component(func(w *writer) {
		if variant == "" {
			variant = BadgeDefault
		}
		if color == "" {
			color = BadgeColorDefault
		}
		w.raw(`<span`)
		w.attr("class", "badge badge--"+string(variant)+" badge--"+string(color))
		w.raw(`>`)
		if variant == BadgeStatus {
			w.raw(`<span class="badge-dot" aria-hidden="true"></span>`)
		}
		w.text(label)
		w.raw(`</span>`)
	})
}

// FieldProps configures a labelled form field.
type FieldProps struct {
	Name         string
	Label        string
	Type         string
	Value        string
	Placeholder  string
	Autocomplete string
	Error        string
	Required     bool
	Rows         int
}

func (p FieldProps) id() string {
	return "field-" + p.Name
}

func (w *writer) fieldLabel(p FieldProps) {
	w.raw(`<label class="field-label"`)
	w.attr("for", p.id())
	w.raw(`>`)
	w.text(p.Label)
	w.raw(`</label>`)
}

func (w *writer) fieldError(p FieldProps) {
	if p.Error != "" {
		w.raw(`<p class="field-error">`)
		w.text(p.Error)
		w.raw(`</p>`)
	}
}

func (w *writer) fieldCommon(p FieldProps) {
	w.attr("id", p.id())
	w.attr("name", p.Name)
	if p.Placeholder != "" {
		w.attr("placeholder", p.Placeholder)
	}
	if p.Required {
		w.raw(` required`)
	}
	if p.Error != "" {
		w.raw(` aria-invalid="true"`)
	}
}

// Input renders a labelled input element.
func Input(p FieldProps) templ.Component {
	return component(func(w *writer) {
		if p.Type == "" {
			p.Type = "text"
		}
		w.raw(`<div class="field">`)
		w.fieldLabel(p)
		w.raw(`<input class="input"`)
		w.attr("type", p.Type)
		w.fieldCommon(p)
		if p.Value != "" && p.Type != "password" {
			w.attr("value", p.Value)
		}
		if p.Autocomplete != "" {
			w.attr("autocomplete", p.Autocomplete)
		}
		w.raw(`>`)
		w.fieldError(p)
		w.raw(`</div>`)
	})
}

// Textarea renders a labelled multi-line text field.
func Textarea(p FieldProps) templ.Component {
	return component(func(w *writer) {
		rows := p.Rows
		if rows <= 0 {
			rows = 4
		}
		w.raw(`<div class="field">`)
		w.fieldLabel(p)
		w.raw(`<textarea class="textarea"`)
		w.fieldCommon(p)
		w.attr("rows", strconv.Itoa(rows))
		w.raw(`>`)
		w.text(p.Value)
		w.raw(`</textarea>`)
		w.fieldError(p)
		w.raw(`</div>`)
	})
}

// CSRFField renders the hidden CSRF input for forms.
func CSRFField() templ.Component {
	return component(func(w *writer) {
		w.raw(`<input type="hidden" name="csrf_token"`)
		w.attr("value", CSRFToken(w.ctx))
		w.raw(`>`)
	})
}

// SubmitButton renders a primary submit button.
func SubmitButton(label string) templ.Component {
	return component(func(w *writer) {
		w.raw(`<button type="submit" class="button button--primary">`)
		w.text(label)
		w.raw(`</button>`)
	})
}
