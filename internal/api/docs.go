package api

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/gaspardpetit/chatpredict/internal/logx"
)

// NewOpenAPI describes the public routes of the server.
func NewOpenAPI(version string) *openapi3.T {
	predictRequest := openapi3.NewObjectSchema().
		WithProperty("message", openapi3.NewStringSchema().WithNullable())
	predictRequest.Description = "A missing or null message is forwarded to the generator as absent."

	predictResponse := openapi3.NewObjectSchema().
		WithProperty("answer", openapi3.NewStringSchema())
	predictResponse.Required = []string{"answer"}

	errorResponse := openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema().WithEnum(
			ErrCodeInvalidJSON,
			ErrCodeUnsupportedMediaType,
			ErrCodeInvalidMessage,
			ErrCodePayloadTooLarge,
			ErrCodeTimeout,
			ErrCodeGenerationFailed,
		))
	errorResponse.Required = []string{"error"}

	errorRef := func(desc string) *openapi3.ResponseRef {
		return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(desc).WithJSONSchema(errorResponse)}
	}

	predict := openapi3.NewOperation()
	predict.OperationID = "predict"
	predict.Summary = "Generate an answer for a message"
	predict.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(predictRequest)}
	predict.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Generated answer").WithJSONSchema(predictResponse)}),
		openapi3.WithStatus(http.StatusBadRequest, errorRef("Body is not a JSON object or message is not a string")),
		openapi3.WithStatus(http.StatusRequestEntityTooLarge, errorRef("Body exceeds the configured limit")),
		openapi3.WithStatus(http.StatusUnsupportedMediaType, errorRef("Content-Type is not JSON")),
		openapi3.WithStatus(http.StatusInternalServerError, errorRef("The generator failed")),
		openapi3.WithStatus(http.StatusGatewayTimeout, errorRef("The generator did not answer in time")),
	)

	index := openapi3.NewOperation()
	index.OperationID = "index"
	index.Summary = "Landing page"
	index.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("HTML landing document").
			WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/html"}))}),
	)

	health := openapi3.NewOperation()
	health.OperationID = "healthz"
	health.Summary = "Health check"
	healthBody := openapi3.NewObjectSchema().WithProperty("status", openapi3.NewStringSchema())
	health.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Serving").WithJSONSchema(healthBody)}),
		openapi3.WithStatus(http.StatusServiceUnavailable, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Draining").WithJSONSchema(healthBody)}),
	)

	state := openapi3.NewOperation()
	state.OperationID = "state"
	state.Summary = "Lifecycle state of this instance"
	stateBody := openapi3.NewObjectSchema().
		WithProperty("status", openapi3.NewStringSchema().WithEnum("not_ready", "ready", "draining", "unknown")).
		WithProperty("draining", openapi3.NewBoolSchema())
	state.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Current state").WithJSONSchema(stateBody)}),
	)

	paths := openapi3.NewPaths()
	paths.Set("/", &openapi3.PathItem{Get: index})
	paths.Set("/predict", &openapi3.PathItem{Post: predict})
	paths.Set("/healthz", &openapi3.PathItem{Get: health})
	paths.Set("/state", &openapi3.PathItem{Get: state})

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: "chatpredict API", Version: version},
		Paths:   paths,
	}
}

// OpenAPIHandler serves doc as JSON. The document is marshaled once.
func OpenAPIHandler(doc *openapi3.T) (http.HandlerFunc, error) {
	b, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(b); err != nil {
			logx.Log.Error().Err(err).Msg("write openapi")
		}
	}, nil
}

const swaggerPage = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8" />
  <title>chatpredict API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
  window.onload = () => {
    SwaggerUIBundle({
      url: 'openapi.json',
      dom_id: '#swagger-ui'
    });
  };
  </script>
</body>
</html>`

// SwaggerHandler serves a minimal Swagger UI.
func SwaggerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(swaggerPage)); err != nil {
			logx.Log.Error().Err(err).Msg("write swagger page")
		}
	}
}
