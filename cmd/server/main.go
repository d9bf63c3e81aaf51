package main

import (
	"github.com/hydroluxe/prodkb/backend/internal/server"
	"github.com/hydroluxe/prodkb/backend/internal/util"
	"github.com/hydroluxe/prodkb/backend/pkg/logger"
	"github.com/hydroluxe/prodkb/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
