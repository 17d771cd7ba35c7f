package app

import (
	"github.com/vk/choreo/internal/invoker"
	"github.com/vk/choreo/modules/http_client"
	"github.com/vk/choreo/modules/socketio"
)

// buildRouter registers every transport the engine configuration enables.
func (a *App) buildRouter() *invoker.Router {
	router := invoker.NewRouter()

	httpOpts := http_client.Options{}
	if a.engine.HTTP != nil {
		httpOpts.Timeout = a.engine.HTTP.Timeout
		httpOpts.Headers = a.engine.HTTP.Headers
	}
	httpInv := http_client.New(httpOpts)
	router.Handle(httpInv, "http://", "https://")
	a.closers = append(a.closers, func() error {
		httpInv.Close()
		return nil
	})

	if sio := a.engine.SocketIO; sio != nil {
		sioInv := socketio.New(socketio.Options{
			URL:         sio.URL,
			Namespace:   sio.Namespace,
			InvokeEvent: sio.InvokeEvent,
			ResultEvent: sio.ResultEvent,
			Timeout:     sio.Timeout,
		})
		router.Handle(sioInv, socketio.SchemeURL, socketio.SchemePrefix)
		a.closers = append(a.closers, func() error {
			sioInv.Close()
			return nil
		})
	}

	a.logger.Debug("Function invokers registered.", "prefixes", router.Prefixes())
	return router
}
