package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/hydroluxe/prodkb/backend/internal/progress"
	"github.com/hydroluxe/prodkb/backend/internal/session"
	"github.com/hydroluxe/prodkb/backend/pkg/ai"
	"github.com/hydroluxe/prodkb/backend/pkg/graph"
	"github.com/hydroluxe/prodkb/backend/pkg/playbook"
)

// App bundles the long-lived collaborators every handler reaches through
// the request context.
type App struct {
	Graph     *graph.Client
	Queue     *amqp091.Channel
	AiClient  ai.Client
	Sessions  *session.Manager
	Bus       *progress.Bus
	Playbooks *playbook.Registry

	// ResultsRoot and SamplesRoot locate generated artifacts and pending
	// learning samples on disk.
	ResultsRoot string
	SamplesRoot string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
