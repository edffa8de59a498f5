/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/Cray-HPE/ims/pkg/apiutils"
	"github.com/Cray-HPE/ims/pkg/artifacts"
	imserrors "github.com/Cray-HPE/ims/pkg/errors"
	"github.com/Cray-HPE/ims/pkg/handlers/types"
	"github.com/Cray-HPE/ims/pkg/records"
	"github.com/Cray-HPE/ims/pkg/s3store"
)

func (h *Handler) ListDeletedPublicKeys(c *gin.Context) {
	handle(c, func(*gin.Context) (interface{}, error) {
		return h.ds.PublicKeys.Deleted.Iter(), nil
	})
}

func (h *Handler) GetDeletedPublicKey(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		key, ok := h.ds.PublicKeys.Deleted.Get(c.Param("id"))
		if !ok {
			return nil, imserrors.NewNotFound("deleted public key", c.Param("id"))
		}
		return key, nil
	})
}

func (h *Handler) UndeletePublicKey(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		if err := parseUndelete(c); err != nil {
			return nil, err
		}
		key, ok := h.ds.PublicKeys.Deleted.Get(c.Param("id"))
		if !ok {
			return nil, imserrors.NewNotFound("deleted public key", c.Param("id"))
		}
		return nil, h.undeletePublicKey(c, key)
	})
}

func (h *Handler) UndeleteAllPublicKeys(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		if err := parseUndelete(c); err != nil {
			return nil, err
		}
		for _, key := range h.ds.PublicKeys.Deleted.Iter() {
			if err := h.undeletePublicKey(c, key); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
}

func (h *Handler) HardDeletePublicKey(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		if !h.ds.PublicKeys.Deleted.Contains(c.Param("id")) {
			return nil, imserrors.NewNotFound("deleted public key", c.Param("id"))
		}
		c.Status(http.StatusNoContent)
		return nil, h.ds.PublicKeys.Deleted.Delete(c.Param("id"))
	})
}

func (h *Handler) HardDeleteAllPublicKeys(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		c.Status(http.StatusNoContent)
		return nil, h.ds.PublicKeys.Deleted.Reset()
	})
}

func (h *Handler) undeletePublicKey(c *gin.Context, key *records.PublicKey) error {
	key.Deleted = nil
	if err := h.ds.PublicKeys.MoveToLive(key); err != nil {
		return imserrors.NewInternalError(err.Error())
	}
	c.Status(http.StatusNoContent)
	return nil
}

func (h *Handler) ListDeletedRecipes(c *gin.Context) {
	handle(c, func(*gin.Context) (interface{}, error) {
		return h.ds.Recipes.Deleted.Iter(), nil
	})
}

func (h *Handler) GetDeletedRecipe(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		recipe, ok := h.ds.Recipes.Deleted.Get(c.Param("id"))
		if !ok {
			return nil, imserrors.NewNotFound("deleted recipe", c.Param("id"))
		}
		return recipe, nil
	})
}

func (h *Handler) UndeleteRecipe(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		if err := parseUndelete(c); err != nil {
			return nil, err
		}
		recipe, ok := h.ds.Recipes.Deleted.Get(c.Param("id"))
		if !ok {
			return nil, imserrors.NewNotFound("deleted recipe", c.Param("id"))
		}
		return nil, h.undeleteRecipe(c, recipe)
	})
}

func (h *Handler) UndeleteAllRecipes(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		if err := parseUndelete(c); err != nil {
			return nil, err
		}
		for _, recipe := range h.ds.Recipes.Deleted.Iter() {
			if err := h.undeleteRecipe(c, recipe); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
}

func (h *Handler) HardDeleteRecipe(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		recipe, ok := h.ds.Recipes.Deleted.Get(c.Param("id"))
		if !ok {
			return nil, imserrors.NewNotFound("deleted recipe", c.Param("id"))
		}
		if err := h.hardDeleteRecipe(c, recipe); err != nil {
			return nil, err
		}
		c.Status(http.StatusNoContent)
		return nil, nil
	})
}

func (h *Handler) HardDeleteAllRecipes(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		for _, recipe := range h.ds.Recipes.Deleted.Iter() {
			if err := h.hardDeleteRecipe(c, recipe); err != nil {
				return nil, err
			}
		}
		c.Status(http.StatusNoContent)
		return nil, nil
	})
}

func (h *Handler) undeleteRecipe(c *gin.Context, recipe *records.Recipe) error {
	if linkArchived(recipe.Link) {
		restored, err := h.artifacts.SoftUndelete(c.Request.Context(), recipe.Link)
		if err != nil {
			return err
		}
		recipe.Link = restored
	}
	recipe.Deleted = nil
	if err := h.ds.Recipes.MoveToLive(recipe); err != nil {
		return imserrors.NewInternalError(err.Error())
	}
	c.Status(http.StatusNoContent)
	return nil
}

func (h *Handler) hardDeleteRecipe(c *gin.Context, recipe *records.Recipe) error {
	if cascadeRequested(c) && recipe.Link != nil {
		if err := h.artifacts.HardDelete(c.Request.Context(), recipe.Link); err != nil {
			klog.ErrorS(err, "failed to remove recipe artifact",
				"recipe", recipe.Id, "path", recipe.Link.Path)
		}
	}
	return h.ds.Recipes.Deleted.Delete(recipe.Id)
}

func (h *Handler) ListDeletedImages(c *gin.Context) {
	handle(c, func(*gin.Context) (interface{}, error) {
		return h.ds.Images.Deleted.Iter(), nil
	})
}

func (h *Handler) GetDeletedImage(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		image, ok := h.ds.Images.Deleted.Get(c.Param("id"))
		if !ok {
			return nil, imserrors.NewNotFound("deleted image", c.Param("id"))
		}
		return image, nil
	})
}

func (h *Handler) UndeleteImage(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		if err := parseUndelete(c); err != nil {
			return nil, err
		}
		image, ok := h.ds.Images.Deleted.Get(c.Param("id"))
		if !ok {
			return nil, imserrors.NewNotFound("deleted image", c.Param("id"))
		}
		return nil, h.undeleteImage(c, image)
	})
}

func (h *Handler) UndeleteAllImages(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		if err := parseUndelete(c); err != nil {
			return nil, err
		}
		for _, image := range h.ds.Images.Deleted.Iter() {
			if err := h.undeleteImage(c, image); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
}

func (h *Handler) HardDeleteImage(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		image, ok := h.ds.Images.Deleted.Get(c.Param("id"))
		if !ok {
			return nil, imserrors.NewNotFound("deleted image", c.Param("id"))
		}
		if err := h.hardDeleteImage(c, image); err != nil {
			return nil, err
		}
		c.Status(http.StatusNoContent)
		return nil, nil
	})
}

func (h *Handler) HardDeleteAllImages(c *gin.Context) {
	handle(c, func(c *gin.Context) (interface{}, error) {
		for _, image := range h.ds.Images.Deleted.Iter() {
			if err := h.hardDeleteImage(c, image); err != nil {
				return nil, err
			}
		}
		c.Status(http.StatusNoContent)
		return nil, nil
	})
}

// undeleteImage restores the image's artifacts and moves the record live.
// A failed restore is logged; the record still returns to the live store so
// the operator can retry or repair by hand.
func (h *Handler) undeleteImage(c *gin.Context, image *records.Image) error {
	if image.Link != nil {
		original, err := h.artifacts.SoftUndeleteImage(c.Request.Context(), image.Id, image.Link)
		if err != nil {
			klog.ErrorS(err, "image artifact restore incomplete", "image", image.Id)
		} else {
			image.Link = original
		}
	}
	image.Deleted = nil
	if err := h.ds.Images.MoveToLive(image); err != nil {
		return imserrors.NewInternalError(err.Error())
	}
	c.Status(http.StatusNoContent)
	return nil
}

func (h *Handler) hardDeleteImage(c *gin.Context, image *records.Image) error {
	if cascadeRequested(c) && image.Link != nil {
		if err := h.artifacts.HardDeleteImage(c.Request.Context(), image.Link); err != nil {
			klog.ErrorS(err, "failed to remove image artifacts",
				"image", image.Id, "path", image.Link.Path)
		}
	}
	return h.ds.Images.Deleted.Delete(image.Id)
}

// linkArchived reports whether the link's key sits under the soft-deleted
// prefix. Only the leading key segment counts; a deeper deleted/ segment is
// part of the caller's own key space.
func linkArchived(link *records.ArtifactLink) bool {
	if link == nil {
		return false
	}
	loc, err := s3store.ParseURL(link.Path)
	if err != nil {
		return false
	}
	return strings.HasPrefix(loc.Key, artifacts.DeletedPrefix)
}

func parseUndelete(c *gin.Context) error {
	req := &types.PatchDeletedRequest{}
	if err := apiutils.ParseRequestBody(c.Request, req); err != nil {
		return err
	}
	if req.Operation != types.OperationUndelete {
		return imserrors.NewValidationFailure(
			fmt.Sprintf("unsupported operation %q", req.Operation))
	}
	return nil
}
