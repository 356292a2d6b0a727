// Package router wires HTTP routes to their handlers and middleware.
package router
