package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mkundi/kampasi/core/catalog"
)

type catalogApi struct {
	svc *catalog.Service
}

func registerCatalogAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *catalog.Service) {
	api := catalogApi{svc: svc}

	cg := g.Group("/catalog", jwt)
	cg.GET("/master-list", api.masterList)
	cg.GET("/stats", api.stats)
}

func (api *catalogApi) masterList(ctx echo.Context) error {
	list, err := api.svc.MasterList(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building master list")
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *catalogApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}
