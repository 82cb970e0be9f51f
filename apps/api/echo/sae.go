package echoapi

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tchaleu/saetrack/core/sae"
)

type saeApi struct {
	svc        sae.ServiceInterface
	validate   *validator.Validate
	translator ut.Translator
}

func registerSaeAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc sae.ServiceInterface,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := saeApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	sg := g.Group("/saes", jwt)
	sg.POST("", api.create, supervisorMiddleware())
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.DELETE("/:id", api.destroy, supervisorMiddleware())

	sg.POST("/:id/attributions", api.attribute, supervisorMiddleware())
	sg.DELETE("/:id/attributions/:studentID", api.unassign, supervisorMiddleware())
	sg.PUT("/:id/due-date", api.updateDueDate, supervisorMiddleware())
}

// Handlers

func (api *saeApi) create(ctx echo.Context) error {
	var data sae.NewSae
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSae")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	creatorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data, creatorID)
	if err != nil {
		return errors.Wrap(err, "creating SAE")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *saeApi) query(ctx echo.Context) error {
	filter := new(sae.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []sae.Sae{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	saes, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying SAEs")
	}
	if saes == nil {
		saes = []sae.Sae{}
	}
	return ctx.JSON(http.StatusOK, saes)
}

func (api *saeApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	s, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *saeApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	creatorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), id, creatorID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *saeApi) attribute(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data sae.NewAttribution
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttribution")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	supervisorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Attribute(ctx.Request().Context(), id, data.StudentIDs, supervisorID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusCreated)
}

func (api *saeApi) unassign(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	studentID, err := pathID(ctx, "studentID")
	if err != nil {
		return err
	}
	supervisorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Unassign(ctx.Request().Context(), id, studentID, supervisorID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *saeApi) updateDueDate(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data sae.NewDueDate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDueDate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	supervisorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.UpdateDueDate(ctx.Request().Context(), id, supervisorID, data.DueDate); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func pathID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id < 1 {
		return 0, errHttpNotFound
	}
	return id, nil
}
