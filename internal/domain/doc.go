// Package domain contains the core concepts of the relay: what can be rendered
// and how a render can fail. Keep it free of HTTP and client concerns.
package domain
