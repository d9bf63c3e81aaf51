package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hydroluxe/prodkb/backend/internal/server/middleware"
	"github.com/hydroluxe/prodkb/backend/pkg/playbook"
	"github.com/hydroluxe/prodkb/backend/pkg/specsheet"
)

// RunAceHandler feeds one confirmed sample to a playbook. For spec samples
// whose prediction and ground truth both parse as specsheets, the
// deterministic evaluator decides correctness first; an already-correct
// prediction is recorded without any LLM call.
func RunAceHandler(c echo.Context) error {
	type aceParams struct {
		Type        string `json:"type" validate:"required"`
		Question    string `json:"question"`
		Context     string `json:"context"`
		Prediction  string `json:"prediction"`
		GroundTruth string `json:"ground_truth" validate:"required"`
	}

	params := new(aceParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	mgr, err := app.Playbooks.Get(playbook.Type(params.Type))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown playbook type"})
	}

	ctx := c.Request().Context()

	if mgr.Type() == playbook.TypeSpec && params.Prediction != "" {
		var pred, truth specsheet.Data
		predErr := json.Unmarshal([]byte(params.Prediction), &pred)
		truthErr := json.Unmarshal([]byte(params.GroundTruth), &truth)
		if predErr == nil && truthErr == nil {
			eval := specsheet.Evaluate(pred, truth)
			algoEval := map[string]any{
				"is_correct": eval.IsCorrect,
				"score":      eval.Score,
				"details":    eval.Details,
			}

			if eval.IsCorrect {
				if err := mgr.StoreExternalResult(playbook.ExternalResult{
					Question:    params.Question,
					Prediction:  params.Prediction,
					GroundTruth: params.GroundTruth,
					Correct:     true,
					Score:       eval.Score,
					AlgoEval:    algoEval,
				}); err != nil {
					return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
				}
				return c.JSON(http.StatusOK, map[string]any{
					"message":    "Prediction already correct, playbook unchanged",
					"evaluation": eval,
				})
			}

			if err := mgr.AdaptWithPrediction(ctx, params.Question, params.Context, params.Prediction, params.GroundTruth); err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
			}
			if err := mgr.ForceLastMetricsCorrectness(eval.IsCorrect); err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
			}
			if err := mgr.AttachLastAlgoEvaluation(algoEval); err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
			}
			return c.JSON(http.StatusOK, map[string]any{
				"message":    "Sample adapted",
				"evaluation": eval,
			})
		}
	}

	if params.Prediction != "" {
		err = mgr.AdaptWithPrediction(ctx, params.Question, params.Context, params.Prediction, params.GroundTruth)
	} else {
		err = mgr.AdaptOnline(ctx, params.Question, params.Context, params.GroundTruth)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Sample adapted"})
}
