// Package catalog loads the ordered list of selectable workflow types and
// serves it from an atomically swapped snapshot.
package catalog

import (
	"crypto/sha256"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pitabwire/shinsei/model"
)

// Builtin returns the catalog used when no catalog file is configured.
func Builtin() model.CatalogFile {
	f := model.CatalogFile{
		Workflows: []model.WorkflowDefinition{
			{ID: "wf1_attendance", DisplayName: "勤怠連絡"},
			{ID: "wf2_purchase", DisplayName: "定期購入"},
			{ID: "wf3_certificate", DisplayName: "資格申請"},
			{ID: "wf4_dependent", DisplayName: "扶養届け"},
			{ID: "wf5_month_end", DisplayName: "月末処理"},
			{ID: "wf6_address_change", DisplayName: "住所変更"},
		},
		SourceFile: "builtin",
	}
	f.Checksum = checksum(f.Workflows)
	return f
}

// Load reads the catalog at path, or returns Builtin when path is empty.
func Load(path string) (model.CatalogFile, error) {
	if path == "" {
		return Builtin(), nil
	}
	return LoadFile(path)
}

// LoadFile parses a YAML catalog file, recording its checksum and path.
func LoadFile(path string) (model.CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.CatalogFile{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var f model.CatalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return model.CatalogFile{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.Checksum = fmt.Sprintf("%x", sha256.Sum256(data))
	f.SourceFile = path
	return f, nil
}

func checksum(wfs []model.WorkflowDefinition) string {
	h := sha256.New()
	for _, w := range wfs {
		fmt.Fprintf(h, "%s\x00%s\x00", w.ID, w.DisplayName)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
