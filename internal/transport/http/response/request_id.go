package response

import (
	"net/http"

	appCtx "github.com/baechuer/edu-quiz/services/identity-service/internal/pkg/context"
)

func RequestIDFromContext(r *http.Request) string {
	return appCtx.GetRequestID(r.Context())
}
