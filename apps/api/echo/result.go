package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/result"
	"github.com/trezcool/alama/core/user"
)

var errResultNotFoundInCtx = errors.New("result object not found in echo.Context")

type resultApi struct {
	svc      result.Service
	usrSvc   user.Service
	auth     *authenticator
	validate *validator.Validate
}

func registerResultAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *authenticator,
	svc result.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := resultApi{
		svc:      svc,
		usrSvc:   usrSvc,
		auth:     auth,
		validate: validate,
	}

	rg := g.Group("/results")

	// un-authed endpoints
	rg.GET("/verify", api.verify)

	// authed endpoints
	ag := rg.Group("", jwt)
	canEnterMarks := marksEntryMiddleware(usrSvc, auth)
	ag.GET("", api.query)
	ag.POST("", api.create, canEnterMarks)

	// detail endpoints
	dg := ag.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.GET("/transcript", api.transcript)
	dg.PUT("", api.update, canEnterMarks)
	dg.POST("/send-slip", api.sendSlip, canEnterMarks)
	dg.DELETE("", api.destroy, adminMiddleware())
}

// Handlers

func (api *resultApi) create(ctx echo.Context) error {
	var data result.NewResult
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResult")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating result")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *resultApi) query(ctx echo.Context) error {
	var filter result.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []result.Result{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxUsr, err := api.auth.contextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.CanEnterMarks() {
		// students only ever see their own results
		if ctxUsr.StudentID == "" {
			return ctx.JSON(http.StatusOK, []result.Result{})
		}
		filter.StudentID = ctxUsr.StudentID
	}

	results, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	if results == nil {
		results = []result.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *resultApi) retrieve(ctx echo.Context) error {
	r, ok := ctx.Get("object").(result.Result)
	if !ok {
		return errors.Wrap(errResultNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *resultApi) transcript(ctx echo.Context) error {
	r, ok := ctx.Get("object").(result.Result)
	if !ok {
		return errors.Wrap(errResultNotFoundInCtx, "retrieving object from context")
	}
	tr, err := api.svc.Transcript(ctx.Request().Context(), r.ID)
	if err != nil {
		return errors.Wrap(err, "building transcript")
	}
	return ctx.JSON(http.StatusOK, tr)
}

func (api *resultApi) update(ctx echo.Context) error {
	r, ok := ctx.Get("object").(result.Result)
	if !ok {
		return errors.Wrap(errResultNotFoundInCtx, "retrieving object from context")
	}

	var data result.UpdateResult
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateResult")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.Update(ctx.Request().Context(), r.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating result")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *resultApi) sendSlip(ctx echo.Context) error {
	r, ok := ctx.Get("object").(result.Result)
	if !ok {
		return errors.Wrap(errResultNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.SendSlip(ctx.Request().Context(), r.ID); err != nil {
		return errors.Wrap(err, "sending result slip")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Result slip sent to " + r.GuardianEmail + "."})
}

func (api *resultApi) destroy(ctx echo.Context) error {
	r, ok := ctx.Get("object").(result.Result)
	if !ok {
		return errors.Wrap(errResultNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), r.ID); err != nil {
		return errors.Wrap(err, "deleting result")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *resultApi) verify(ctx echo.Context) error {
	tr, err := api.svc.Verify(ctx.Request().Context(), ctx.QueryParam("code"))
	if err != nil {
		return errors.Wrap(err, "verifying transcript")
	}
	return ctx.JSON(http.StatusOK, tr)
}

// objectMiddleware loads the Result of the `:id` path param. Results the context user
// may not read are reported as not found.
func (api *resultApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ctxUsr, err := api.auth.contextUser(ctx, api.usrSvc)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}

		r, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == result.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding result by ID")
		}
		if !ctxUsr.CanReadResultsOf(r.StudentID) {
			return errHttpNotFound
		}
		ctx.Set("object", r)
		return next(ctx)
	}
}

type SuccessResponse struct {
	Success string `json:"success"`
}
