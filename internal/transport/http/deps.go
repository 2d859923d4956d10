package http

import (
	"github.com/go-account-api/internal/application/account"
)

// Deps holds the application services the router exposes.
type Deps struct {
	Account account.Service
}
