/*
Package auth protects gateway routes with API keys or bearer tokens.

# API keys

Keys come from the api_key configuration section (plus the API_KEY
environment variable). The middleware looks for a key in the X-API-Key
header, then in "Authorization: Bearer <key>":

	validator := auth.NewAPIKeyValidatorFromConfig(cfg.Security.APIKey)
	mw := auth.NewAPIKeyMiddleware(validator, auth.SourcesFromConfig(cfg.Security.APIKey.Sources), logger)
	mux.Handle("/api/v1/upload-video", mw.Handle(uploadHandler))

A request without a key gets 401; an unknown or disabled key gets 403.

# Bearer tokens

Tokens are verified by a TokenVerifier. SupabaseClient asks the project's
GoTrue endpoint (GET /auth/v1/user) who the token belongs to:

	verifier, err := auth.NewSupabaseClient(cfg.Security.Token)
	tokens := auth.NewTokenMiddleware(verifier, logger)
	mux.Handle("/api/v1/upload-video", tokens.Require(uploadHandler))

Require answers 401 for missing, malformed or rejected tokens and 500 when the
provider cannot be reached. Optional never rejects; it only attaches the user
when the token checks out. Handlers read the user with GetUser.
*/
package auth
