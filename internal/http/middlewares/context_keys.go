package middlewares

// Gin context key shared by middlewares and the respond helpers.
const CtxRequestID = "request_id"
