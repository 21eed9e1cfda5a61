/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package attributes

import (
	"context"
	"sync"

	"github.com/ghodss/yaml"
	perrors "github.com/pkg/errors"
	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/crowbar/node-inventory/common"
)

// ConfigMapDataKey is the ConfigMap data entry holding the YAML encoded
// attribute tree.
const ConfigMapDataKey = "attributes.yaml"

// ConfigMapStore is an attribute store persisted in a Kubernetes ConfigMap.
// Updates carry the resourceVersion of the last read or write so that a
// concurrent writer on another node surfaces as a save error rather than
// silently losing data.
type ConfigMapStore struct {
	*Tree
	client client.Client
	key    types.NamespacedName

	mu        sync.Mutex
	configMap *v1.ConfigMap
}

// NewConfigMapStore loads the attribute tree from the named ConfigMap.  A
// missing ConfigMap yields an empty store; it is created on the first Save.
func NewConfigMapStore(ctx context.Context, c client.Client, namespace, name string) (*ConfigMapStore, error) {
	store := &ConfigMapStore{
		Tree:   NewTree(nil),
		client: c,
		key:    types.NamespacedName{Namespace: namespace, Name: name},
	}

	cm := &v1.ConfigMap{}
	err := c.Get(ctx, store.key, cm)
	if errors.IsNotFound(err) {
		log.Info("attribute configmap not found; starting empty", "configmap", store.key)
		return store, nil
	} else if err != nil {
		return nil, perrors.Wrapf(err, "failed to get configmap %s", store.key)
	}

	data := make(map[string]interface{})
	if content, ok := cm.Data[ConfigMapDataKey]; ok {
		if err := yaml.Unmarshal([]byte(content), &data); err != nil {
			return nil, common.NewPersistence(
				perrors.Wrapf(err, "failed to parse configmap %s", store.key).Error())
		}
	}

	store.configMap = cm
	store.replace(data)

	return store, nil
}

// Save implements Store.
func (in *ConfigMapStore) Save() error {
	buffer, err := yaml.Marshal(in.Snapshot())
	if err != nil {
		return perrors.Wrap(err, "failed to encode attributes")
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if in.configMap == nil {
		cm := &v1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Namespace: in.key.Namespace,
				Name:      in.key.Name,
			},
			Data: map[string]string{ConfigMapDataKey: string(buffer)},
		}

		if err := in.client.Create(context.TODO(), cm); err != nil {
			return common.NewPersistence(
				perrors.Wrapf(err, "failed to create configmap %s", in.key).Error())
		}

		in.configMap = cm
		return nil
	}

	cm := in.configMap.DeepCopy()
	if cm.Data == nil {
		cm.Data = make(map[string]string)
	}
	cm.Data[ConfigMapDataKey] = string(buffer)

	if err := in.client.Update(context.TODO(), cm); err != nil {
		if errors.IsConflict(err) {
			log.Info("attribute configmap was modified by another writer", "configmap", in.key)
		}
		return common.NewPersistence(
			perrors.Wrapf(err, "failed to update configmap %s", in.key).Error())
	}

	in.configMap = cm

	return nil
}
