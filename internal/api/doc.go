// Package api exposes the study engine over HTTP. Handlers translate requests
// into calls on the study and review services and map their errors onto
// status codes; they hold no state of their own.
package api
