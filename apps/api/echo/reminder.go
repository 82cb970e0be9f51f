package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tchaleu/saetrack/core/reminder"
)

type reminderApi struct {
	scheduler *reminder.Scheduler
	tracker   *reminder.Tracker
	validate  *validator.Validate
}

func registerReminderAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	scheduler *reminder.Scheduler,
	tracker *reminder.Tracker,
	validate *validator.Validate,
) {
	api := reminderApi{
		scheduler: scheduler,
		tracker:   tracker,
		validate:  validate,
	}

	rg := g.Group("/reminders", jwt, adminMiddleware())
	rg.POST("/send-now", api.sendNow)
	rg.GET("/delays", api.retrieveDelays)
	rg.PUT("/delays", api.updateDelays)
}

// Handlers

func (api *reminderApi) sendNow(ctx echo.Context) error {
	var data SendNowRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendNowRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	stats, err := api.scheduler.SendImmediate(
		ctx.Request().Context(), data.Days, reminder.TemplateForDelay(data.Days))
	if err != nil {
		return errors.Wrap(err, "sending reminders")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *reminderApi) retrieveDelays(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, DelaysResponse{Delays: api.tracker.Delays(ctx.Request().Context())})
}

func (api *reminderApi) updateDelays(ctx echo.Context) error {
	var data DelaysRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DelaysRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.tracker.SetDelays(ctx.Request().Context(), data.Delays); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, DelaysResponse{Delays: api.tracker.Delays(ctx.Request().Context())})
}

type (
	SendNowRequest struct {
		Days int `json:"days" validate:"required,min=1,max=30"`
	}

	DelaysRequest struct {
		Delays []int `json:"delays" validate:"delays"`
	}

	DelaysResponse struct {
		Delays []int `json:"delays"`
	}
)

func (sr *SendNowRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(sr)
}

func (dr *DelaysRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(dr)
}
