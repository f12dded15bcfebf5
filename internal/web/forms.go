package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Field is one input of a generated form.
type Field struct {
	Name    string
	Label   string
	Type    string // text, email, url, password, number, textarea, checkbox, select, color
	Value   string
	Checked bool
	Options []Option
	Help    string
	Picker  bool // suggests files of the media library
}

// Option is a select choice.
type Option struct {
	Value, Label string
}

type formData struct {
	Action  string
	Back    string
	Delete  string
	Details [][2]string
	Fields  []Field
	Media   []Option // picker suggestions, public URL and name
}

func text(name, label, value string) Field {
	return Field{Name: name, Label: label, Type: "text", Value: value}
}

func mediaField(name, label, value string) Field {
	return Field{Name: name, Label: label, Type: "text", Value: value, Picker: true,
		Help: "Escribe una URL o elige un archivo de la biblioteca de medios"}
}

func textarea(name, label, value string) Field {
	return Field{Name: name, Label: label, Type: "textarea", Value: value}
}

func number(name, label string, value interface{}) Field {
	return Field{Name: name, Label: label, Type: "number", Value: fmt.Sprint(value)}
}

func checkbox(name, label string, checked bool) Field {
	return Field{Name: name, Label: label, Type: "checkbox", Checked: checked}
}

func choice(name, label, value string, options []Option) Field {
	return Field{Name: name, Label: label, Type: "select", Value: value, Options: options}
}

func formInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
	return n
}

func formFloat(r *http.Request, name string) float64 {
	f, _ := strconv.ParseFloat(strings.Replace(strings.TrimSpace(r.FormValue(name)), ",", ".", 1), 64)
	return f
}

func formOptionalFloat(r *http.Request, name string) *float64 {
	if strings.TrimSpace(r.FormValue(name)) == "" {
		return nil
	}
	f := formFloat(r, name)
	return &f
}

func formBool(r *http.Request, name string) bool {
	switch r.FormValue(name) {
	case "on", "true", "1":
		return true
	}
	return false
}

func formLines(r *http.Request, name string) []string {
	var out []string
	for _, line := range strings.Split(r.FormValue(name), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func formString(r *http.Request, name string) string {
	return strings.TrimSpace(r.FormValue(name))
}
