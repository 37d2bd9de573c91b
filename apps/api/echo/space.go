package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mkundi/kampasi/core/space"
)

type spaceApi struct {
	svc      *space.Service
	validate *validator.Validate
}

func registerSpaceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *space.Service, validate *validator.Validate) {
	api := spaceApi{svc: svc, validate: validate}

	sg := g.Group("/spaces", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create, adminMiddleware())
	sg.DELETE("", api.destroyMultiple, adminMiddleware())
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update, adminMiddleware())
	sg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *spaceApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	if param := ctx.QueryParam("facility"); param != "" {
		facilityID, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			return ctx.JSON(http.StatusOK, []space.Space{})
		}
		spcs, err := api.svc.FilterByFacility(ctx.Request().Context(), facilityID)
		if err != nil {
			return errors.Wrap(err, "filtering spaces by facility")
		}
		if spcs == nil {
			spcs = []space.Space{}
		}
		return ctx.JSON(http.StatusOK, spcs)
	}

	spcs, err := api.svc.QueryAll(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying spaces")
	}
	return ctx.JSON(http.StatusOK, spcs)
}

func (api *spaceApi) create(ctx echo.Context) error {
	var data space.NewSpace
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSpace")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	spc, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating space")
	}
	return ctx.JSON(http.StatusCreated, spc)
}

func (api *spaceApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return errHttpNotFound
	}
	spc, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == space.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding space by ID")
	}
	return ctx.JSON(http.StatusOK, spc)
}

func (api *spaceApi) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return errHttpNotFound
	}

	var data space.UpdateSpace
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSpace")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	spc, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		if errors.Cause(err) == space.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating space")
	}
	return ctx.JSON(http.StatusOK, spc)
}

func (api *spaceApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return errHttpNotFound
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting space")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *spaceApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleIDsRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleIDsRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting spaces")
	}
	return ctx.NoContent(http.StatusNoContent)
}
