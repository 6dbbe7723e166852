package generator

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GeneratedSuffix ends every file the generator writes.
const GeneratedSuffix = "_bh.go"

// Options configures the generator.
type Options struct {
	DryRun bool
	Logger *slog.Logger
}

// Generator writes attribute schema methods for structs with attr tags.
type Generator struct {
	opts   Options
	fset   *token.FileSet
	logger *slog.Logger
}

// New creates a new generator.
func New(opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		opts:   opts,
		fset:   token.NewFileSet(),
		logger: logger,
	}
}

// Generate generates code for the given package patterns.
func (g *Generator) Generate(patterns ...string) error {
	packages, err := g.findPackages(patterns)
	if err != nil {
		return err
	}

	for _, pkg := range packages {
		if err := g.generatePackage(pkg); err != nil {
			return fmt.Errorf("package %s: %w", pkg, err)
		}
	}

	return nil
}

// Clean removes generated files for the given package patterns.
func (g *Generator) Clean(patterns ...string) error {
	packages, err := g.findPackages(patterns)
	if err != nil {
		return err
	}

	for _, pkg := range packages {
		if err := g.cleanPackage(pkg); err != nil {
			return fmt.Errorf("package %s: %w", pkg, err)
		}
	}

	return nil
}

// findPackages resolves package patterns to directory paths. A pattern is a
// directory, a directory followed by "/..." for it and every package below,
// or a doublestar glob matching directories.
func (g *Generator) findPackages(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var packages []string
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if !seen[dir] && hasGoFiles(dir) {
			seen[dir] = true
			packages = append(packages, dir)
		}
	}

	for _, pattern := range patterns {
		switch {
		case strings.HasSuffix(pattern, "/..."):
			root := strings.TrimSuffix(pattern, "/...")
			if root == "" {
				root = "."
			}
			err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() {
					return nil
				}
				// Skip hidden directories and vendor
				base := filepath.Base(path)
				if path != root && (strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") || base == "vendor" || base == "testdata") {
					return filepath.SkipDir
				}
				add(path)
				return nil
			})
			if err != nil {
				return nil, err
			}

		case strings.ContainsAny(pattern, "*?[{"):
			matches, err := doublestar.FilepathGlob(pattern)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", pattern, err)
			}
			for _, m := range matches {
				if info, err := os.Stat(m); err == nil && info.IsDir() {
					add(m)
				}
			}

		default:
			add(pattern)
		}
	}

	return packages, nil
}

func hasGoFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && isSourceFile(entry.Name()) {
			return true
		}
	}
	return false
}

// isSourceFile reports whether name is a Go file the generator reads.
func isSourceFile(name string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasSuffix(name, GeneratedSuffix)
}

// generatePackage generates code for a single package.
func (g *Generator) generatePackage(pkgPath string) error {
	entries, err := os.ReadDir(pkgPath)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !isSourceFile(entry.Name()) {
			continue
		}
		path := filepath.Join(pkgPath, entry.Name())
		file, err := parser.ParseFile(g.fset, path, nil, parser.ParseComments)
		if err != nil {
			return err
		}

		schemas, err := g.findSchemas(file)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if len(schemas) == 0 {
			continue
		}
		if err := g.generateFile(path, file.Name.Name, schemas); err != nil {
			return err
		}
	}

	return nil
}

// cleanPackage removes generated files from a package.
func (g *Generator) cleanPackage(pkgPath string) error {
	entries, err := os.ReadDir(pkgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), GeneratedSuffix) {
			continue
		}
		path := filepath.Join(pkgPath, entry.Name())
		g.logger.Info("removing", "file", path)
		if !g.opts.DryRun {
			if err := os.Remove(path); err != nil {
				return err
			}
		}
	}

	return nil
}

// SchemaInfo describes a struct whose fields carry attr tags.
type SchemaInfo struct {
	TypeName string
	Fields   []AttrField
}

// AttrField is one attr-tagged field.
type AttrField struct {
	Name string // Go field name
	Type string // e.g., "int", "time.Duration"
	Attr string // attribute name from the tag
}

// supportedTypes lists the field types ReadAttributes can decode.
var supportedTypes = map[string]bool{
	"string":        true,
	"bool":          true,
	"int":           true,
	"int64":         true,
	"float64":       true,
	"time.Duration": true,
}

// findSchemas finds every struct type in file with at least one attr tag.
func (g *Generator) findSchemas(file *ast.File) ([]*SchemaInfo, error) {
	var schemas []*SchemaInfo

	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}

		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok || typeSpec.TypeParams != nil {
				continue
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok {
				continue
			}

			info := &SchemaInfo{TypeName: typeSpec.Name.Name}
			for _, field := range structType.Fields.List {
				attr, ok := attrTag(field.Tag)
				if !ok {
					continue
				}
				if len(field.Names) != 1 {
					return nil, fmt.Errorf("%s: attr tag %q needs exactly one named field", info.TypeName, attr)
				}
				typ := typeToString(field.Type)
				if !supportedTypes[typ] {
					return nil, fmt.Errorf("%s.%s: unsupported attribute type %s", info.TypeName, field.Names[0].Name, typ)
				}
				info.Fields = append(info.Fields, AttrField{
					Name: field.Names[0].Name,
					Type: typ,
					Attr: attr,
				})
			}
			if len(info.Fields) > 0 {
				schemas = append(schemas, info)
			}
		}
	}

	sort.Slice(schemas, func(i, j int) bool { return schemas[i].TypeName < schemas[j].TypeName })
	return schemas, nil
}

// attrTag extracts the attribute name from a field tag. Fields tagged
// attr:"-" or without an attr key are skipped.
func attrTag(lit *ast.BasicLit) (string, bool) {
	if lit == nil {
		return "", false
	}
	raw, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	value, ok := reflect.StructTag(raw).Lookup("attr")
	if !ok || value == "-" {
		return "", false
	}
	name, _, _ := strings.Cut(value, ",")
	return name, name != ""
}

// typeToString converts an AST type to a string representation.
func typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + typeToString(t.X)
	case *ast.SelectorExpr:
		return typeToString(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + typeToString(t.Elt)
		}
		return "[...]" + typeToString(t.Elt)
	case *ast.MapType:
		return "map[" + typeToString(t.Key) + "]" + typeToString(t.Value)
	default:
		return fmt.Sprintf("%T", expr)
	}
}
