package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// generateFile writes the *_bh.go file for the schemas found in source.
func (g *Generator) generateFile(source, pkgName string, schemas []*SchemaInfo) error {
	baseName := strings.TrimSuffix(filepath.Base(source), ".go")
	outputFile := filepath.Join(filepath.Dir(source), baseName+GeneratedSuffix)

	g.logger.Info("generating", "file", outputFile, "schemas", len(schemas))

	if g.opts.DryRun {
		return nil
	}

	code, err := Render(filepath.Base(source), pkgName, schemas)
	if err != nil {
		// Write unformatted for debugging
		if code != nil {
			if writeErr := os.WriteFile(outputFile+".unformatted", code, 0644); writeErr == nil {
				g.logger.Warn("wrote unformatted code for debugging", "file", outputFile+".unformatted")
			}
		}
		return err
	}

	return os.WriteFile(outputFile, code, 0644)
}

// Render returns the formatted generated source for schemas. On a format
// failure the unformatted source is returned with the error.
func Render(source, pkgName string, schemas []*SchemaInfo) ([]byte, error) {
	tmpl, err := template.New("bh").Funcs(template.FuncMap{
		"readField": readFieldCode,
	}).Parse(bhTemplate)
	if err != nil {
		return nil, err
	}

	data := struct {
		Source  string
		Package string
		Schemas []*SchemaInfo
		Imports []string
	}{
		Source:  source,
		Package: pkgName,
		Schemas: schemas,
		Imports: imports(schemas),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), fmt.Errorf("format source: %w", err)
	}
	return formatted, nil
}

// imports returns the packages the generated ReadAttributes bodies use.
func imports(schemas []*SchemaInfo) []string {
	var needFmt, needStrconv, needTime bool
	for _, s := range schemas {
		for _, f := range s.Fields {
			switch f.Type {
			case "int", "int64", "float64":
				needFmt, needStrconv = true, true
			case "time.Duration":
				needFmt, needTime = true, true
			}
		}
	}

	var pkgs []string
	if needFmt {
		pkgs = append(pkgs, "fmt")
	}
	if needStrconv {
		pkgs = append(pkgs, "strconv")
	}
	if needTime {
		pkgs = append(pkgs, "time")
	}
	return pkgs
}

// readFieldCode generates the statements that decode one attribute.
func readFieldCode(f AttrField) string {
	wrap := func(parse, assign string) string {
		return fmt.Sprintf(`if v, ok := lookup(%q); ok {
	x, err := %s
	if err != nil {
		return fmt.Errorf("attribute %s: %%w", err)
	}
	s.%s = %s
}`, f.Attr, parse, f.Attr, f.Name, assign)
	}

	switch f.Type {
	case "string":
		return fmt.Sprintf(`if v, ok := lookup(%q); ok { s.%s = v }`, f.Attr, f.Name)
	case "bool":
		return fmt.Sprintf(`if v, ok := lookup(%q); ok { s.%s = v != "false" }`, f.Attr, f.Name)
	case "int":
		return wrap("strconv.Atoi(v)", "x")
	case "int64":
		return wrap("strconv.ParseInt(v, 10, 64)", "x")
	case "float64":
		return wrap("strconv.ParseFloat(v, 64)", "x")
	case "time.Duration":
		return wrap("time.ParseDuration(v)", "x")
	default:
		return fmt.Sprintf("// %s: unsupported type %s", f.Name, f.Type)
	}
}

const bhTemplate = `// Code generated by behavioral generate. DO NOT EDIT.
// Source: {{.Source}}

package {{.Package}}
{{if .Imports}}
import (
{{- range .Imports}}
	"{{.}}"
{{- end}}
)
{{end}}
{{range .Schemas}}
// AttributeKeys returns the attribute names declared by {{.TypeName}}'s attr tags.
func ({{.TypeName}}) AttributeKeys() []string {
	return []string{
	{{- range .Fields}}
		"{{.Attr}}",
	{{- end}}
	}
}

// ReadAttributes fills s from attribute values. Absent attributes leave
// their field unchanged.
func (s *{{.TypeName}}) ReadAttributes(lookup func(name string) (string, bool)) error {
	{{- range .Fields}}
	{{readField .}}
	{{- end}}
	return nil
}
{{end}}`
