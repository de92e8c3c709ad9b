package storage

import (
	"fmt"
	"time"

	"github.com/matsen/papyrus/internal/paper"
	"gopkg.in/yaml.v3"
)

// metaFile is the on-disk layout of a metadata file. The three document
// keys are either all null or all set.
type metaFile struct {
	Filename  *string  `yaml:"filename"`
	Extension *string  `yaml:"extension"`
	Path      *string  `yaml:"path"`
	Notes     []string `yaml:"notes"`
	Tags      []string `yaml:"tags"`
	Added     string   `yaml:"added,omitempty"`
}

func encodeMetadata(meta paper.Metadata) ([]byte, error) {
	mf := metaFile{
		Notes: meta.Notes,
		Tags:  meta.Tags.Sorted(),
	}
	if mf.Notes == nil {
		mf.Notes = []string{}
	}
	if doc := meta.Document; doc != nil {
		mf.Filename = &doc.Filename
		mf.Extension = &doc.Extension
		mf.Path = &doc.Path
	}
	if !meta.Added.IsZero() {
		mf.Added = meta.Added.UTC().Format(time.RFC3339)
	}
	return yaml.Marshal(&mf)
}

func decodeMetadata(data []byte) (paper.Metadata, error) {
	var mf metaFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return paper.Metadata{}, err
	}

	meta := paper.BaseMeta()
	if mf.Notes != nil {
		meta.Notes = mf.Notes
	}
	meta.Tags.Add(mf.Tags...)

	set := 0
	for _, p := range []*string{mf.Filename, mf.Extension, mf.Path} {
		if p != nil {
			set++
		}
	}
	switch set {
	case 0:
	case 3:
		meta.Document = &paper.Document{
			Filename:  *mf.Filename,
			Extension: *mf.Extension,
			Path:      *mf.Path,
		}
	default:
		return paper.Metadata{}, paper.ErrInconsistentMetadata
	}

	if mf.Added != "" {
		added, err := time.Parse(time.RFC3339, mf.Added)
		if err != nil {
			return paper.Metadata{}, fmt.Errorf("parsing added time: %w", err)
		}
		meta.Added = added.UTC()
	}
	return meta, nil
}
