/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package attributes

import (
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
	perrors "github.com/pkg/errors"

	"github.com/crowbar/node-inventory/common"
)

// FileStore is an attribute store persisted as a YAML document on the local
// filesystem.
type FileStore struct {
	*Tree
	path string
}

// NewFileStore loads the YAML document at 'path'.  A missing file yields an
// empty store which is created on the first Save.
func NewFileStore(path string) (*FileStore, error) {
	store := &FileStore{Tree: NewTree(nil), path: path}
	if err := store.Reload(); err != nil {
		return nil, err
	}
	return store, nil
}

// Path returns the location of the backing document.
func (in *FileStore) Path() string {
	return in.path
}

// Reload discards the in-memory tree and reads the backing document again.
func (in *FileStore) Reload() error {
	buffer, err := os.ReadFile(in.path)
	if os.IsNotExist(err) {
		log.V(1).Info("attribute file not present", "path", in.path)
		in.replace(nil)
		return nil
	} else if err != nil {
		return perrors.Wrapf(err, "failed to read attributes from %s", in.path)
	}

	data := make(map[string]interface{})
	if err := yaml.Unmarshal(buffer, &data); err != nil {
		return common.NewPersistence(
			perrors.Wrapf(err, "failed to parse attributes from %s", in.path).Error())
	}

	in.replace(data)
	return nil
}

// Save implements Store.  The document is written to a temporary file in the
// same directory and renamed over the original.
func (in *FileStore) Save() error {
	buffer, err := yaml.Marshal(in.Snapshot())
	if err != nil {
		return perrors.Wrap(err, "failed to encode attributes")
	}

	dir := filepath.Dir(in.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return perrors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(in.path)+".*")
	if err != nil {
		return perrors.Wrap(err, "failed to create temporary attribute file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buffer); err != nil {
		tmp.Close()
		return perrors.Wrapf(err, "failed to write %s", tmp.Name())
	}

	if err := tmp.Close(); err != nil {
		return perrors.Wrapf(err, "failed to close %s", tmp.Name())
	}

	if err := os.Rename(tmp.Name(), in.path); err != nil {
		return common.NewPersistence(
			perrors.Wrapf(err, "failed to replace %s", in.path).Error())
	}

	log.V(1).Info("attributes saved", "path", in.path)

	return nil
}
