// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"strconv"

	"github.com/a-h/templ"
)

func (w *writer) head(title string) {
	w.raw(`<!DOCTYPE html><html`)
	w.attr("lang", Locale(w.ctx))
	w.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
	w.raw(`<meta name="csrf-token"`)
	w.attr("content", CSRFToken(w.ctx))
	w.raw(`><title>`)
	if title != "" {
		w.text(title + " · ")
	}
	w.text(T(w.ctx, "app_name"))
	w.raw(`</title><link rel="stylesheet"`)
	w.attr("href", CSSPath(w.ctx))
	w.raw(`></head>`)
}

func (w *writer) nav() {
	user := GetUser(w.ctx)
	w.raw(`<nav class="navbar"><a class="navbar-brand"`)
	w.href("/")
	w.raw(`>`)
	w.text(T(w.ctx, "app_name"))
	w.raw(`</a>`)
	if user != nil {
		w.raw(`<div class="navbar-menu"><span class="navbar-user">`)
		w.text(user.Name)
		w.raw(`</span>`)
		if user.IsAdmin() {
			w.render(Badge(BadgeOutline, BadgeColorBlue, T(w.ctx, "role_admin")))
			w.raw(`<a class="navbar-link"`)
			w.href("/users")
			w.raw(`>`)
			w.text(T(w.ctx, "nav_users"))
			w.raw(`</a>`)
		}
		w.raw(`<a class="navbar-link"`)
		w.href("/account/password")
		w.raw(`>`)
		w.text(T(w.ctx, "nav_change_password"))
		w.raw(`</a><form method="post" action="/auth/logout" class="navbar-logout">`)
		w.render(CSRFField())
		w.raw(`<button type="submit" class="button button--link">`)
		w.text(T(w.ctx, "nav_logout"))
		w.raw(`</button></form></div>`)
	}
	w.raw(`</nav>`)
}

// Base is the application shell for authenticated pages.
func Base(title string, body templ.Component) templ.Component {
	return component(func(w *writer) {
		w.head(title)
		w.raw(`<body>`)
		w.nav()
		w.raw(`<main class="container">`)
		w.render(body)
		w.raw(`</main></body></html>`)
	})
}

// AuthLayout centers a single card, used by login and password reset pages.
func AuthLayout(title, subtitle string, body templ.Component) templ.Component {
	return component(func(w *writer) {
		w.head(title)
		w.raw(`<body class="auth-page"><main class="auth-card"><div class="auth-brand">`)
		w.render(Icon(IconShieldCheck, "auth-logo"))
		w.raw(`<h1 class="auth-title">`)
		w.text(title)
		w.raw(`</h1>`)
		if subtitle != "" {
			w.raw(`<p class="auth-subtitle">`)
			w.text(subtitle)
			w.raw(`</p>`)
		}
		w.raw(`</div>`)
		w.render(body)
		w.raw(`</main></body></html>`)
	})
}

// ErrorPage renders a full page for an HTTP error status.
func ErrorPage(status int, title, message string) templ.Component {
	return component(func(w *writer) {
		w.head(title)
		w.raw(`<body>`)
		w.nav()
		w.raw(`<main class="container error-page"><p class="error-code">`)
		w.text(strconv.Itoa(status))
		w.raw(`</p><h1 class="error-title">`)
		w.text(title)
		w.raw(`</h1><p class="error-message">`)
		w.text(message)
		w.raw(`</p><a class="button button--primary"`)
		w.href("/")
		w.raw(`>`)
		w.text(T(w.ctx, "error_back_home"))
		w.raw(`</a></main></body></html>`)
	})
}

// ErrorFragment renders an error message without the page shell, for htmx swaps.
func ErrorFragment(message string) templ.Component {
	return AuthAlert(AlertError, message)
}
