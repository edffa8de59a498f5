/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package records

import (
	"k8s.io/klog/v2"
)

// Registry pairs the live and deleted stores of one soft-deletable kind.
// Transitions are single-direction moves: the destination store is written
// first, then the source record is removed. A crash between the two writes
// leaves the id in both files; that is resolved on open, live wins.
type Registry[T Record[T]] struct {
	Live    *Store[T]
	Deleted *Store[T]
}

// NewRegistry opens both stores and drops any deleted-side duplicate of a
// live id left behind by a crash.
func NewRegistry[T Record[T]](dir, liveFile, deletedFile string) (*Registry[T], error) {
	live, err := NewStore[T](dir, liveFile)
	if err != nil {
		return nil, err
	}
	deleted, err := NewStore[T](dir, deletedFile)
	if err != nil {
		return nil, err
	}
	for _, rec := range deleted.Iter() {
		if live.Contains(rec.RecordId()) {
			klog.InfoS("dropping deleted-side duplicate, live record wins",
				"file", deletedFile, "id", rec.RecordId())
			if err = deleted.Delete(rec.RecordId()); err != nil {
				return nil, err
			}
		}
	}
	return &Registry[T]{Live: live, Deleted: deleted}, nil
}

// MoveToDeleted writes the record to the deleted store, then removes it from
// the live store.
func (r *Registry[T]) MoveToDeleted(rec T) error {
	if err := r.Deleted.Put(rec); err != nil {
		return err
	}
	return r.Live.Delete(rec.RecordId())
}

// MoveToLive writes the record to the live store, then removes it from the
// deleted store.
func (r *Registry[T]) MoveToLive(rec T) error {
	if err := r.Live.Put(rec); err != nil {
		return err
	}
	return r.Deleted.Delete(rec.RecordId())
}

// Datastore bundles every record store the service owns.
type Datastore struct {
	PublicKeys       *Registry[*PublicKey]
	Recipes          *Registry[*Recipe]
	Images           *Registry[*Image]
	Jobs             *Store[*Job]
	RemoteBuildNodes *Store[*RemoteBuildNode]
}

// NewDatastore opens all record files under dir.
func NewDatastore(dir string) (*Datastore, error) {
	publicKeys, err := NewRegistry[*PublicKey](dir, PublicKeysFile, DeletedPublicKeysFile)
	if err != nil {
		return nil, err
	}
	recipes, err := NewRegistry[*Recipe](dir, RecipesFile, DeletedRecipesFile)
	if err != nil {
		return nil, err
	}
	images, err := NewRegistry[*Image](dir, ImagesFile, DeletedImagesFile)
	if err != nil {
		return nil, err
	}
	jobs, err := NewStore[*Job](dir, JobsFile)
	if err != nil {
		return nil, err
	}
	nodes, err := NewStore[*RemoteBuildNode](dir, RemoteBuildNodesFile)
	if err != nil {
		return nil, err
	}
	return &Datastore{
		PublicKeys:       publicKeys,
		Recipes:          recipes,
		Images:           images,
		Jobs:             jobs,
		RemoteBuildNodes: nodes,
	}, nil
}
