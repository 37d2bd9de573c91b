package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mkundi/kampasi/core/facility"
)

type facilityApi struct {
	svc      *facility.Service
	validate *validator.Validate
}

func registerFacilityAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *facility.Service, validate *validator.Validate) {
	api := facilityApi{svc: svc, validate: validate}

	fg := g.Group("/facilities", jwt)
	fg.GET("", api.query)
	fg.POST("", api.create, adminMiddleware())
	fg.DELETE("", api.destroyMultiple, adminMiddleware())
	fg.GET("/:id", api.retrieve)
	fg.PUT("/:id", api.update, adminMiddleware())
	fg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *facilityApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	facs, err := api.svc.QueryAll(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying facilities")
	}
	return ctx.JSON(http.StatusOK, facs)
}

func (api *facilityApi) create(ctx echo.Context) error {
	var data facility.NewFacility
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFacility")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	fac, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating facility")
	}
	return ctx.JSON(http.StatusCreated, fac)
}

func (api *facilityApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return errHttpNotFound
	}
	fac, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == facility.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding facility by ID")
	}
	return ctx.JSON(http.StatusOK, fac)
}

func (api *facilityApi) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return errHttpNotFound
	}

	var data facility.UpdateFacility
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateFacility")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	fac, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		if errors.Cause(err) == facility.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating facility")
	}
	return ctx.JSON(http.StatusOK, fac)
}

func (api *facilityApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return errHttpNotFound
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting facility")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *facilityApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleIDsRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleIDsRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting facilities")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type DestroyMultipleIDsRequest struct {
	IDs []int64 `query:"id"`
}

// pathID parses the numeric :id path param.
func pathID(ctx echo.Context) (int64, error) {
	return strconv.ParseInt(ctx.Param("id"), 10, 64)
}
