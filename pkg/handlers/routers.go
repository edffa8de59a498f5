/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Cray-HPE/ims/pkg/apiutils"
	imserrors "github.com/Cray-HPE/ims/pkg/errors"
	"github.com/Cray-HPE/ims/pkg/metrics"
)

// InitHttpHandlers builds the engine with logging, metrics and both API
// versions. v2 exists for older clients and omits the deleted-record and
// remote-build-node surfaces.
func InitHttpHandlers(h *Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(apiutils.Logger(), gin.Recovery(), metrics.Middleware())
	engine.NoRoute(func(c *gin.Context) {
		apiutils.AbortWithProblem(c, imserrors.NewNotFoundWithMessage(c.Request.RequestURI+" not found"))
	})

	engine.GET("/version", h.GetVersion)
	engine.GET("/healthz/live", h.Live)
	engine.GET("/healthz/ready", h.Ready)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	for _, group := range []*gin.RouterGroup{engine.Group("/v2"), engine.Group("/v3")} {
		initRecordRouters(group, h)
	}
	initV3Routers(engine.Group("/v3"), h)
	return engine
}

// initRecordRouters registers the routes both API versions share.
func initRecordRouters(group *gin.RouterGroup, h *Handler) {
	group.POST("public-keys", h.CreatePublicKey)
	group.GET("public-keys", h.ListPublicKeys)
	group.DELETE("public-keys", h.DeleteAllPublicKeys)
	group.GET("public-keys/:id", h.GetPublicKey)
	group.DELETE("public-keys/:id", h.DeletePublicKey)

	group.POST("recipes", h.CreateRecipe)
	group.GET("recipes", h.ListRecipes)
	group.DELETE("recipes", h.DeleteAllRecipes)
	group.GET("recipes/:id", h.GetRecipe)
	group.PATCH("recipes/:id", h.PatchRecipe)
	group.DELETE("recipes/:id", h.DeleteRecipe)

	group.POST("images", h.CreateImage)
	group.GET("images", h.ListImages)
	group.DELETE("images", h.DeleteAllImages)
	group.GET("images/:id", h.GetImage)
	group.PATCH("images/:id", h.PatchImage)
	group.DELETE("images/:id", h.DeleteImage)

	group.POST("jobs", h.CreateJob)
	group.GET("jobs", h.ListJobs)
	group.DELETE("jobs", h.DeleteJobCollection)
	group.GET("jobs/:id", h.GetJob)
	group.PATCH("jobs/:id", h.PatchJob)
	group.DELETE("jobs/:id", h.DeleteJob)
}

// initV3Routers registers the v3-only deleted-record and remote-build-node
// surfaces.
func initV3Routers(group *gin.RouterGroup, h *Handler) {
	group.GET("deleted/public-keys", h.ListDeletedPublicKeys)
	group.PATCH("deleted/public-keys", h.UndeleteAllPublicKeys)
	group.DELETE("deleted/public-keys", h.HardDeleteAllPublicKeys)
	group.GET("deleted/public-keys/:id", h.GetDeletedPublicKey)
	group.PATCH("deleted/public-keys/:id", h.UndeletePublicKey)
	group.DELETE("deleted/public-keys/:id", h.HardDeletePublicKey)

	group.GET("deleted/recipes", h.ListDeletedRecipes)
	group.PATCH("deleted/recipes", h.UndeleteAllRecipes)
	group.DELETE("deleted/recipes", h.HardDeleteAllRecipes)
	group.GET("deleted/recipes/:id", h.GetDeletedRecipe)
	group.PATCH("deleted/recipes/:id", h.UndeleteRecipe)
	group.DELETE("deleted/recipes/:id", h.HardDeleteRecipe)

	group.GET("deleted/images", h.ListDeletedImages)
	group.PATCH("deleted/images", h.UndeleteAllImages)
	group.DELETE("deleted/images", h.HardDeleteAllImages)
	group.GET("deleted/images/:id", h.GetDeletedImage)
	group.PATCH("deleted/images/:id", h.UndeleteImage)
	group.DELETE("deleted/images/:id", h.HardDeleteImage)

	group.POST("remote-build-nodes", h.CreateRemoteBuildNode)
	group.GET("remote-build-nodes", h.ListRemoteBuildNodes)
	group.DELETE("remote-build-nodes", h.DeleteAllRemoteBuildNodes)
	group.GET("remote-build-nodes/:xname", h.GetRemoteBuildNodeStatus)
	group.DELETE("remote-build-nodes/:xname", h.DeleteRemoteBuildNode)
}
