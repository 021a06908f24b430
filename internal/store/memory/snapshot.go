package memory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/collectionmap/pkg/catalog"
	"github.com/agentstation/collectionmap/pkg/constants"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

// Snapshot is the YAML file layout.
type Snapshot struct {
	Institutions []catalog.Institution `yaml:"institutions"`
	Collections  []catalog.Collection  `yaml:"collections"`
}

func (s *state) snapshot() Snapshot {
	snap := Snapshot{
		Institutions: make([]catalog.Institution, 0, len(s.instOrder)),
		Collections:  make([]catalog.Collection, 0, len(s.collOrder)),
	}
	for _, id := range s.instOrder {
		snap.Institutions = append(snap.Institutions, s.institutions[id])
	}
	for _, id := range s.collOrder {
		snap.Collections = append(snap.Collections, s.collections[id])
	}
	return snap
}

// loadSnapshot returns nil when the file does not exist yet.
func loadSnapshot(path string) (*state, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.WrapIO("read", path, err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, pkgerrors.NewParseError("yaml", path, err.Error(), err)
	}

	st := newState()
	for _, inst := range snap.Institutions {
		if inst.NameKey == "" {
			inst.NameKey = catalog.NormalizeName(inst.Name)
		}
		if _, dup := st.instByKey[inst.NameKey]; dup {
			return nil, pkgerrors.NewParseError("yaml", path, fmt.Sprintf("duplicate institution %q", inst.Name), nil)
		}
		st.addInstitution(inst)
	}
	for _, coll := range snap.Collections {
		if coll.NameKey == "" {
			coll.NameKey = catalog.NormalizeName(coll.Name)
		}
		if _, ok := st.institutions[coll.InstitutionID]; !ok {
			return nil, pkgerrors.NewParseError("yaml", path,
				fmt.Sprintf("collection %q references unknown institution %s", coll.Name, coll.InstitutionID), nil)
		}
		st.addCollection(coll)
	}
	return st, nil
}

// writeSnapshot replaces the file atomically via a temp file and rename.
func writeSnapshot(path string, st *state) error {
	data, err := yaml.Marshal(st.snapshot())
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return pkgerrors.WrapIO("create", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.yaml")
	if err != nil {
		return pkgerrors.WrapIO("create", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return pkgerrors.WrapIO("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.WrapIO("close", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), constants.FilePermissions); err != nil {
		return pkgerrors.WrapIO("chmod", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return pkgerrors.WrapIO("rename", path, err)
	}
	return nil
}
