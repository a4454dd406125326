package usecases

import (
	"context"

	verificationusecases "vendorflow/internal/application/verification/usecases"
)

// ContactVerifier confirms a vendor's email by phone before the first send.
type ContactVerifier interface {
	Execute(ctx context.Context, cmd verificationusecases.VerifyContactCommand) *verificationusecases.VerifyContactResult
}

// CallBudget caps how many verification calls may be placed.
type CallBudget interface {
	Allow(ctx context.Context) (bool, error)
}
