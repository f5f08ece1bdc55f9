package eval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kairos-eval/prefbench/internal/parse"
	"github.com/kairos-eval/prefbench/internal/synthesis"
	"github.com/kairos-eval/prefbench/schemas"
)

var schemaPrinter = message.NewPrinter(language.English)

var instanceSchema = mustCompileSchema(schemas.InstanceSchemaJSON, "instance.schema.json")

func mustCompileSchema(raw, name string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(fmt.Sprintf("parsing embedded %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("adding %s resource: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compiling %s: %v", name, err))
	}
	return schema
}

// validateInstance parses raw against the instance schema and returns the
// loosely-typed document alongside any validation failures.
func validateInstance(raw []byte) (any, []string) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, []string{fmt.Sprintf("JSON parse error: %v", err)}
	}
	err := instanceSchema.Validate(doc)
	if err == nil {
		return doc, nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return nil, errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(schemaPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// NamedInstance pairs an instance with the name its results are filed under.
type NamedInstance struct {
	Name     string
	Instance synthesis.Instance
}

// LoadInstances reads every instance file under dataDir, validating each
// against the instance schema. Invalid files are logged and skipped so one
// bad artifact does not block the run.
func LoadInstances(dataDir string) ([]NamedInstance, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("reading instance directory: %w", err)
	}

	var instances []NamedInstance
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dataDir, entry.Name()))
		if err != nil {
			slog.Error("skipping unreadable instance file", "file", entry.Name(), "error", err)
			continue
		}
		doc, errs := validateInstance(raw)
		if len(errs) > 0 {
			slog.Error("skipping invalid instance file", "file", entry.Name(), "errors", strings.Join(errs, "; "))
			continue
		}

		var instance synthesis.Instance
		if err := parse.Decode(doc, &instance); err != nil {
			slog.Error("skipping undecodable instance file", "file", entry.Name(), "error", err)
			continue
		}
		instances = append(instances, NamedInstance{
			Name:     strings.TrimSuffix(entry.Name(), ".json"),
			Instance: instance,
		})
	}

	sort.Slice(instances, func(i, j int) bool { return instances[i].Name < instances[j].Name })
	return instances, nil
}

// LoadBenchmark reads a JSONL export of the published benchmark dataset.
// Each line is one instance named by its persona_id.
func LoadBenchmark(path string) ([]NamedInstance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening benchmark file: %w", err)
	}
	defer f.Close()

	var instances []NamedInstance
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		doc, errs := validateInstance([]byte(text))
		if len(errs) > 0 {
			slog.Error("skipping invalid benchmark record", "line", line, "errors", strings.Join(errs, "; "))
			continue
		}
		var instance synthesis.Instance
		if err := parse.Decode(doc, &instance); err != nil {
			slog.Error("skipping undecodable benchmark record", "line", line, "error", err)
			continue
		}
		instances = append(instances, NamedInstance{Name: instance.PersonaID, Instance: instance})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading benchmark file: %w", err)
	}
	return instances, nil
}
