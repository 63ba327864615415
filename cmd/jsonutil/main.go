package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/duanxinyuan/json-utils/internal/logging"
)

var (
	signalNotify = signal.Notify
	newLogger    = logging.New
)

func main() {
	kingpin.FatalIfError(run(os.Args[1:], os.Stdin, os.Stdout), "")
}

// run parses args and executes the selected command.
func run(args []string, stdin io.Reader, stdout io.Writer) error {
	c := newCLI(stdin, stdout)
	command, err := c.app.Parse(args)
	if err != nil {
		return err
	}
	return c.dispatch(command)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
