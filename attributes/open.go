/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package attributes

import (
	"context"
	"fmt"
	"strings"

	perrors "github.com/pkg/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/crowbar/node-inventory/common"
)

// Supported store URI schemes.
const (
	SchemeFile      = "file"
	SchemeMemory    = "memory"
	SchemeConfigMap = "configmap"
)

// ClientFactory builds the Kubernetes client used by the ConfigMap backend.
// It is only invoked when a configmap URI is opened.
type ClientFactory func() (client.Client, error)

// Open selects and loads an attribute store from a URI of the form
// "file:<path>", "configmap:<namespace>/<name>" or "memory:".  A URI without
// a scheme is treated as a file path.
func Open(ctx context.Context, uri string, newClient ClientFactory) (Store, error) {
	scheme, rest, found := strings.Cut(uri, ":")
	if !found {
		scheme, rest = SchemeFile, uri
	}

	switch scheme {
	case SchemeFile:
		if rest == "" {
			return nil, common.NewInvalidArgument("file store requires a path")
		}
		return NewFileStore(rest)

	case SchemeMemory:
		return NewMapStore(nil), nil

	case SchemeConfigMap:
		namespace, name, ok := strings.Cut(rest, "/")
		if !ok || namespace == "" || name == "" {
			msg := fmt.Sprintf("configmap store requires <namespace>/<name>, got %q", rest)
			return nil, common.NewInvalidArgument(msg)
		}

		if newClient == nil {
			return nil, common.NewInvalidArgument("configmap store requires a kubernetes client")
		}

		c, err := newClient()
		if err != nil {
			return nil, perrors.Wrap(err, "failed to create kubernetes client")
		}

		return NewConfigMapStore(ctx, c, namespace, name)

	default:
		return nil, common.NewInvalidArgument(fmt.Sprintf("unsupported store scheme %q", scheme))
	}
}
