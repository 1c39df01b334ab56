package middleware

import (
	"context"
	"net/http"

	"github.com/digital-menu/api/internal/device"
	"github.com/digital-menu/api/internal/localcache"
	"github.com/digital-menu/api/internal/logger"
)

const (
	DeviceCookie = "device_id"
	DeviceHeader = "X-Device-ID"

	deviceKey contextKey = "device_id"

	deviceCookieMaxAge = 10 * 365 * 24 * 60 * 60
)

// Device resolves the caller's device identifier from the cookie or the
// X-Device-ID header, issuing a new one when neither holds a valid id.
// New ids are recorded in the device's local cache namespace.
func Device(cache localcache.Store, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(DeviceCookie); err == nil && device.Valid(c.Value) {
				id = c.Value
			} else if h := r.Header.Get(DeviceHeader); device.Valid(h) {
				id = h
			}

			if id == "" {
				id = device.NewID()
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   deviceCookieMaxAge,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
				if cache != nil {
					if err := localcache.ForDevice(cache, id).Set(r.Context(), localcache.KeyDeviceID, id); err != nil {
						logger.WithCtx(r.Context()).Warn("record device id", "error", err)
					}
				}
			}
			w.Header().Set(DeviceHeader, id)

			ctx := context.WithValue(r.Context(), deviceKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func DeviceFromContext(ctx context.Context) string {
	id, _ := ctx.Value(deviceKey).(string)
	return id
}

// WithDevice returns a context carrying id, for tests and internal callers.
func WithDevice(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deviceKey, id)
}
