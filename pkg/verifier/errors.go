package verifier

import "fmt"

// UpstreamDataError signals that a transaction record served by the trusted
// transaction service is internally inconsistent (bad hash, bad signature,
// duplicate confirmations). Callers surface it as a gateway-side failure,
// not a user error.
type UpstreamDataError struct {
	Reason string
	Err    error
}

func (e *UpstreamDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("verifier: upstream transaction data invalid: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("verifier: upstream transaction data invalid: %s", e.Reason)
}

func (e *UpstreamDataError) Unwrap() error {
	return e.Err
}

// ProposalError signals that a user-submitted proposal failed verification.
// Callers surface it as a client-side rejection.
type ProposalError struct {
	Reason string
	Err    error
}

func (e *ProposalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("verifier: proposal rejected: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("verifier: proposal rejected: %s", e.Reason)
}

func (e *ProposalError) Unwrap() error {
	return e.Err
}
