package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/andrebq/pressbox/internal/logutil"
)

// Serve runs handler on bind until ctx is cancelled, then drains open
// connections for up to one minute before giving up.
func Serve(ctx context.Context, bind string, handler http.Handler) error {
	server := http.Server{
		Handler:           handler,
		Addr:              bind,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		ReadHeaderTimeout: time.Minute,
		IdleTimeout:       time.Minute * 5,
	}
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", server.Addr).Logger()
	errch := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting HTTP server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errch <- err
			return
		}
		errch <- nil
	}()
	select {
	case err := <-errch:
		return err
	case <-ctx.Done():
		log.Info().Msg("Initiating shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		log.Info().Msg("Shutdown completed")
		if err != nil {
			return err
		}
		return <-errch
	}
}
