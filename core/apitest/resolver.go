// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package apitest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/rowclient/core"
	"github.com/relabs-tech/rowclient/core/transport"
)

// Resolver returns a navigation resolver backed by the fake, the way a mobile host
// resolves calls with its embedded router. Non-JSON responses are wrapped into an envelope.
func (s *Server) Resolver() transport.Resolver {
	return transport.ResolverFunc(func(ctx context.Context, nav transport.Navigation) (json.RawMessage, error) {
		target := nav.Path()
		if nav.Query != "" {
			target += "?" + nav.Query
		}
		var body []byte
		if nav.Body != nil {
			var err error
			if body, err = json.Marshal(nav.Body); err != nil {
				return nil, err
			}
		}
		r, err := http.NewRequestWithContext(ctx, nav.Method(), target, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		if s.csrfToken != "" {
			r.Header.Set(core.HeaderCSRFToken, s.csrfToken)
		}
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, r)

		if strings.Contains(rec.Header().Get("Content-Type"), "json") {
			return rec.Body.Bytes(), nil
		}
		member := "success"
		if rec.Code != http.StatusOK {
			member = "error"
		}
		return json.Marshal(map[string]string{member: rec.Body.String()})
	})
}
