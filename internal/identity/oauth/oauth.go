// Package oauth reserves the federation extension point. No provider is
// active; identity type "oauth" exists in the data model but nothing issues
// it. LinkProvider and UnlinkProvider are the contract a future provider
// integration fills in.
package oauth

import (
	"context"

	dErrors "recoveryregister/pkg/domain-errors"
)

// Linker is the provider-federation extension point.
type Linker interface {
	LinkProvider(ctx context.Context, identityID int64, provider string) error
	UnlinkProvider(ctx context.Context, identityID int64, provider string) error
}

// Disabled is the only implementation: every operation reports that
// federation is off.
type Disabled struct{}

func (Disabled) LinkProvider(context.Context, int64, string) error {
	return dErrors.New(dErrors.CodeBadRequest, "oauth federation is disabled")
}

func (Disabled) UnlinkProvider(context.Context, int64, string) error {
	return dErrors.New(dErrors.CodeBadRequest, "oauth federation is disabled")
}
