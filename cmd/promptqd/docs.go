package main

// General API documentation for swaggo. Run `swag init -g cmd/promptqd/docs.go -o internal/httpapi/docs` to regenerate.
//
// @title           promptq API
// @version         1.0
// @description     Single-flight prompt queue in front of LLM backends.
//
// @contact.name   promptq maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
