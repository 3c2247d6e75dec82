package log_test

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/ardnew/brace/log"
)

func Example() {
	logger := log.Make(os.Stdout,
		log.WithLevel(log.LevelInfo),
		log.WithFormat(log.FormatText),
		log.WithPretty(false),
		log.WithTimeLayout("none"))

	logger.Info("rendered", log.Template("index.html"), log.Elapsed(2*time.Millisecond))
	logger.Debug("not shown")

	// Output:
	// level=INFO msg=rendered template=index.html elapsed=2ms
}

func Example_with() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatJSON),
		log.WithPretty(false),
		log.WithTimeLayout("none")).
		With(log.Template("mail/welcome"))

	logger.Error("render failed", log.Err(errors.New("timeout")), slog.Int("attempt", 2))

	// Output:
	// {"level":"ERROR","msg":"render failed","template":"mail/welcome","error":"timeout","attempt":2}
}
