package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/grading"
	"github.com/trezcool/alama/core/result"
)

// gradingApi exposes the grading engine as is, without storing anything.
type gradingApi struct {
	recorder result.Recorder
}

func registerGradingAPI(g *echo.Group, jwt echo.MiddlewareFunc, recorder result.Recorder) {
	api := gradingApi{recorder: recorder}

	gg := g.Group("/grading", jwt)
	gg.POST("/evaluate", api.evaluate)
	gg.POST("/aggregate", api.aggregate)
}

type AggregateRequest struct {
	Grades []grading.Entry `json:"grades"`
}

func (api *gradingApi) evaluate(ctx echo.Context) error {
	var mark grading.Mark
	if err := ctx.Bind(&mark); err != nil {
		return errors.Wrap(err, "binding to Mark")
	}

	grade, err := grading.Evaluate(mark)
	if err != nil {
		api.recorder.ObserveRejected("out_of_range")
		return err
	}
	api.recorder.ObserveSubject(grade.Letter)
	return ctx.JSON(http.StatusOK, grade)
}

func (api *gradingApi) aggregate(ctx echo.Context) error {
	var data AggregateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AggregateRequest")
	}

	res, err := grading.Aggregate(data.Grades)
	if err != nil {
		var gpErr *grading.InvalidGradePointError
		switch {
		case errors.As(err, &gpErr):
			api.recorder.ObserveRejected("invalid_grade_point")
		case err == grading.ErrMultipleOptional:
			api.recorder.ObserveRejected("multiple_optional")
		}
		return err
	}
	api.recorder.ObserveAggregate(res)
	return ctx.JSON(http.StatusOK, res)
}
