package spec

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"specgate/internal/domain"
)

// ParseDocument unmarshals one raw specification document. YAML and JSON
// sources are both accepted (yaml.v3 parses JSON as a YAML subset).
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse spec document: %w", err)
	}
	return &doc, nil
}

// Load turns a batch of raw documents into validated Specs for one namespace.
//
// Every document is meta-validated; failing documents are skipped and their
// findings attached to the report, prefixed with the document's name when one
// is extractable. After the batch, duplicate names are reported as errors and
// dropped first-seen-wins: silently merging two divergent schemas for the
// same name would be unsound.
//
// Load never decides batch acceptance. Callers reject the whole batch on
// report.HasErrors() or accept the valid subset; both are legitimate policies
// (registry.ReplaceStrict and registry.Replace respectively).
func Load(namespace string, docs []*Document) ([]*Spec, domain.Report) {
	var rep domain.Report
	var specs []*Spec
	seen := make(map[string]bool)

	for i, doc := range docs {
		docRep := ValidateDocument(doc)
		if docRep.HasErrors() {
			label := documentLabel(doc, i)
			for _, f := range docRep.Findings {
				f.Message = fmt.Sprintf("%s: %s", label, f.Message)
				rep.Add(f)
			}
			continue
		}
		rep.Merge(docRep)

		if seen[doc.Name] {
			rep.AddError(domain.KindDuplicateName, "$.name",
				fmt.Sprintf("spec %q is declared more than once in namespace %q; keeping the first", doc.Name, namespace))
			continue
		}
		seen[doc.Name] = true

		specs = append(specs, &Spec{
			Namespace:   namespace,
			Name:        doc.Name,
			Description: doc.Description,
			Parameters:  doc.Parameters.compile(),
		})
	}

	return specs, rep
}

// documentLabel identifies a document in batch findings: its declared name if
// present, otherwise its position.
func documentLabel(doc *Document, index int) string {
	if doc != nil && doc.Name != "" {
		return fmt.Sprintf("spec %q", doc.Name)
	}
	return fmt.Sprintf("document #%d", index)
}

// LoadDir reads every .yaml, .yml and .json file in dir as a specification
// document and loads the batch under namespace. Other entries are skipped.
// Unparseable files become findings, not a hard error; the returned error is
// reserved for an unreadable directory.
func LoadDir(namespace, dir string) ([]*Spec, domain.Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.Report{}, fmt.Errorf("read spec directory %q: %w", dir, err)
	}

	var rep domain.Report
	var docs []*Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			rep.AddError(domain.KindSpecInvalid, "$",
				fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		doc, err := ParseDocument(data)
		if err != nil {
			rep.AddError(domain.KindSpecInvalid, "$",
				fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		docs = append(docs, doc)
	}

	specs, loadRep := Load(namespace, docs)
	rep.Merge(loadRep)
	return specs, rep, nil
}
