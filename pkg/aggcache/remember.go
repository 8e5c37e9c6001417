package aggcache

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Remember returns the cached value of key, or loads, stores and returns it.
// Cache failures are logged and never change the answer.
func Remember[T any](ctx context.Context, store Store, log *logrus.Entry, key Key, load func(context.Context) (T, error)) (T, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithFields(logrus.Fields{"component": "aggcache", "endpoint": key.Endpoint})

	if store != nil {
		raw, ok, err := store.Get(ctx, key)
		switch {
		case err != nil:
			log.WithError(err).Warn("aggcache: read failed")
			recordRequest(key.Name(), "error")
		case ok:
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				recordRequest(key.Name(), "hit")
				return cached, nil
			}
			log.Warn("aggcache: dropping undecodable entry")
			recordRequest(key.Name(), "error")
		default:
			recordRequest(key.Name(), "miss")
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if store == nil {
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Warn("aggcache: encode failed")
		return v, nil
	}
	if err := store.Set(ctx, key, raw); err != nil {
		log.WithError(err).Warn("aggcache: write failed")
	}
	return v, nil
}
