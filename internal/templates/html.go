// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// writer accumulates the first write error so components can emit markup
// without checking every call.
type writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newWriter(ctx context.Context, w io.Writer) *writer {
	return &writer{ctx: ctx, w: w}
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) attr(name, value string) {
	w.raw(" " + name + "=\"" + templ.EscapeString(value) + "\"")
}

func (w *writer) href(url string) {
	w.attr("href", string(templ.URL(url)))
}

func (w *writer) render(c templ.Component) {
	if w.err == nil && c != nil {
		w.err = c.Render(w.ctx, w.w)
	}
}

// component adapts a writer-based render function to templ.Component.
func component(fn func(w *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := newWriter(ctx, out)
		fn(w)
		return w.err
	})
}

// Text renders escaped text.
func Text(s string) templ.Component {
	return component(func(w *writer) { w.text(s) })
}

// Group renders components in order.
func Group(children ...templ.Component) templ.Component {
	return component(func(w *writer) {
		for _, c := range children {
			w.render(c)
		}
	})
}

func classes(names ...string) string {
	out := ""
	for _, n := range names {
		if n == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += n
	}
	return out
}
