package supervisor

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// templateData is exposed to {{ }} expressions in args, cwd and env values,
// next to the sprig function library (env, default, trim, ...).
type templateData struct {
	Name      string
	ConfigDir string
}

// expandSpec renders every templated field of spec. The persisted spec keeps the
// raw templates; only the launched process sees the rendered values.
func expandSpec(spec ServerSpec, data templateData) (ServerSpec, error) {
	out := spec.clone()

	var err error
	if out.Command, err = expandString("command", out.Command, data); err != nil {
		return ServerSpec{}, err
	}
	for i, arg := range out.Args {
		if out.Args[i], err = expandString(fmt.Sprintf("args[%d]", i), arg, data); err != nil {
			return ServerSpec{}, err
		}
	}
	if out.Cwd, err = expandString("cwd", out.Cwd, data); err != nil {
		return ServerSpec{}, err
	}
	for k, v := range out.Env {
		if out.Env[k], err = expandString("env."+k, v, data); err != nil {
			return ServerSpec{}, err
		}
	}
	return out, nil
}

func expandString(field, value string, data templateData) (string, error) {
	if !strings.Contains(value, "{{") {
		return value, nil
	}

	tmpl, err := template.New(field).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(value)
	if err != nil {
		return "", &ConfigurationError{Server: data.Name, Field: field, Message: err.Error()}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", &ConfigurationError{Server: data.Name, Field: field, Message: err.Error()}
	}
	return buf.String(), nil
}
