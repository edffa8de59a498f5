/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Cray-HPE/ims/pkg/apiutils"
	imserrors "github.com/Cray-HPE/ims/pkg/errors"
	"github.com/Cray-HPE/ims/pkg/handlers/types"
	"github.com/Cray-HPE/ims/pkg/records"
	"github.com/Cray-HPE/ims/pkg/s3store"
)

func (h *Handler) CreateRecipe(c *gin.Context) {
	handle(c, h.createRecipe)
}

func (h *Handler) ListRecipes(c *gin.Context) {
	handle(c, h.listRecipes)
}

func (h *Handler) GetRecipe(c *gin.Context) {
	handle(c, h.getRecipe)
}

func (h *Handler) PatchRecipe(c *gin.Context) {
	handle(c, h.patchRecipe)
}

func (h *Handler) DeleteRecipe(c *gin.Context) {
	handle(c, h.deleteRecipe)
}

func (h *Handler) DeleteAllRecipes(c *gin.Context) {
	handle(c, h.deleteAllRecipes)
}

func (h *Handler) createRecipe(c *gin.Context) (interface{}, error) {
	req := &types.CreateRecipeRequest{}
	if err := apiutils.ParseRequestBody(c.Request, req); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, imserrors.NewValidationFailure("name is required")
	}
	if !records.ValidRecipeType(req.RecipeType) {
		return nil, imserrors.NewValidationFailure(
			fmt.Sprintf("unknown recipe_type %q", req.RecipeType))
	}
	if !records.ValidLinuxDistribution(req.LinuxDistribution) {
		return nil, imserrors.NewValidationFailure(
			fmt.Sprintf("unknown linux_distribution %q", req.LinuxDistribution))
	}
	arch := req.Arch
	if arch == "" {
		arch = records.ArchX8664
	}
	if !records.ValidArch(arch) {
		return nil, imserrors.NewValidationFailure(fmt.Sprintf("unknown arch %q", arch))
	}
	if req.Link != nil {
		if err := h.checkRecipeLink(c, req.Link, ""); err != nil {
			return nil, err
		}
	}
	recipe := &records.Recipe{
		Id:                 uuid.NewString(),
		Name:               req.Name,
		Link:               req.Link,
		RecipeType:         req.RecipeType,
		LinuxDistribution:  req.LinuxDistribution,
		Arch:               arch,
		RequireDkms:        req.RequireDkms,
		TemplateDictionary: req.TemplateDictionary,
		Created:            time.Now().UTC(),
	}
	if err := h.ds.Recipes.Live.Put(recipe); err != nil {
		return nil, imserrors.NewInternalError(err.Error())
	}
	c.Status(http.StatusCreated)
	return recipe, nil
}

func (h *Handler) listRecipes(_ *gin.Context) (interface{}, error) {
	return h.ds.Recipes.Live.Iter(), nil
}

func (h *Handler) getRecipe(c *gin.Context) (interface{}, error) {
	recipe, ok := h.ds.Recipes.Live.Get(c.Param("id"))
	if !ok {
		return nil, imserrors.NewNotFound("recipe", c.Param("id"))
	}
	return recipe, nil
}

// patchRecipe supports exactly one mutation: setting the link of a recipe
// that has none. Re-sending the stored link is a no-op; a different link on
// an already-linked recipe conflicts.
func (h *Handler) patchRecipe(c *gin.Context) (interface{}, error) {
	recipe, ok := h.ds.Recipes.Live.Get(c.Param("id"))
	if !ok {
		return nil, imserrors.NewNotFound("recipe", c.Param("id"))
	}
	req := &types.PatchRecipeRequest{}
	if err := apiutils.ParseRequestBody(c.Request, req); err != nil {
		return nil, err
	}
	if req.Link == nil {
		return nil, imserrors.NewValidationFailure("link is the only patchable field")
	}
	if recipe.Link != nil {
		if recipe.Link.Equal(req.Link) {
			return recipe, nil
		}
		return nil, imserrors.NewPatchConflict(
			fmt.Sprintf("recipe %s link is already set", recipe.Id))
	}
	if err := h.checkRecipeLink(c, req.Link, recipe.Id); err != nil {
		return nil, err
	}
	recipe.Link = req.Link
	if err := h.ds.Recipes.Live.Put(recipe); err != nil {
		return nil, imserrors.NewInternalError(err.Error())
	}
	return recipe, nil
}

func (h *Handler) deleteRecipe(c *gin.Context) (interface{}, error) {
	recipe, ok := h.ds.Recipes.Live.Get(c.Param("id"))
	if !ok {
		return nil, imserrors.NewNotFound("recipe", c.Param("id"))
	}
	if err := h.softDeleteRecipe(c, recipe); err != nil {
		return nil, err
	}
	c.Status(http.StatusNoContent)
	return nil, nil
}

func (h *Handler) deleteAllRecipes(c *gin.Context) (interface{}, error) {
	for _, recipe := range h.ds.Recipes.Live.Iter() {
		if err := h.softDeleteRecipe(c, recipe); err != nil {
			return nil, err
		}
	}
	c.Status(http.StatusNoContent)
	return nil, nil
}

func (h *Handler) softDeleteRecipe(c *gin.Context, recipe *records.Recipe) error {
	if cascadeRequested(c) && recipe.Link != nil {
		moved, err := h.artifacts.SoftDelete(c.Request.Context(), recipe.Link)
		if err != nil {
			return err
		}
		recipe.Link = moved
	}
	now := time.Now().UTC()
	recipe.Deleted = &now
	if err := h.ds.Recipes.MoveToDeleted(recipe); err != nil {
		return imserrors.NewInternalError(err.Error())
	}
	return nil
}

// checkRecipeLink verifies the linked artifact exists and that no other live
// recipe references the same path.
func (h *Handler) checkRecipeLink(c *gin.Context, link *records.ArtifactLink, selfId string) error {
	if link.Type != records.LinkTypeS3 {
		return imserrors.NewValidationFailure(fmt.Sprintf("unsupported link type %q", link.Type))
	}
	loc, err := s3store.ParseURL(link.Path)
	if err != nil {
		return imserrors.NewBadRequest(err.Error())
	}
	if _, err = h.store.Head(c.Request.Context(), loc.Bucket, loc.Key); err != nil {
		return imserrors.NewArtifactNotFound(link.Path)
	}
	for _, other := range h.ds.Recipes.Live.Iter() {
		if other.Id != selfId && other.Link != nil && other.Link.Path == link.Path {
			return imserrors.NewValidationFailure(
				fmt.Sprintf("link path %s is already used by recipe %s", link.Path, other.Id))
		}
	}
	return nil
}
