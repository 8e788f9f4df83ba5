package contracts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Схемы ответов внешнего API витрины, ключ - "<Name>Response/<major>.0.0".
const (
	ProductsResponseV1       = "ProductsResponse/1.0.0"
	FacetsResponseV1         = "FacetsResponse/1.0.0"
	ReviewsResponseV1        = "ReviewsResponse/1.0.0"
	ReviewResponseResponseV1 = "ReviewResponseResponse/1.0.0"
)

//go:embed schemas
var schemasFS embed.FS

const schemasRoot = "schemas/responses"

var compiledSchemas = make(map[string]*jsonschema.Schema)

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	paths, err := schemaPaths()
	if err != nil {
		log.Fatalf("error walking schema resources: %v", err)
	}

	// ресурсы добавляются до компиляции, чтобы работали $ref между файлами
	for _, path := range paths {
		file, err := schemasFS.Open(path)
		if err != nil {
			log.Fatalf("failed to open schema %s: %v", path, err)
		}
		err = compiler.AddResource(path, file)
		file.Close()
		if err != nil {
			log.Fatalf("failed to add schema resource %s: %v", path, err)
		}
	}

	for _, path := range paths {
		schema, err := compiler.Compile(path)
		if err != nil {
			log.Fatalf("failed to compile schema %s: %v", path, err)
		}
		compiledSchemas[keyFromPath(path)] = schema
	}
}

func schemaPaths() ([]string, error) {
	var paths []string
	err := fs.WalkDir(schemasFS, schemasRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// keyFromPath: "schemas/responses/review-response/v1.json" -> "ReviewResponseResponse/1.0.0".
func keyFromPath(path string) string {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(path, schemasRoot+"/"), ".json")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 {
		return ""
	}

	caser := cases.Title(language.English)
	var name strings.Builder
	for _, p := range strings.Split(parts[0], "-") {
		name.WriteString(caser.String(p))
	}
	name.WriteString("Response")

	return fmt.Sprintf("%s/%s.0.0", name.String(), strings.TrimPrefix(parts[1], "v"))
}

// ValidateResponse проверяет тело ответа по схеме с ключом key.
func ValidateResponse(key string, body []byte) error {
	schema, ok := compiledSchemas[key]
	if !ok {
		return fmt.Errorf("schema %q not found", key)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("response body is not a valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}
	return nil
}
