package services

// Events observes account lifecycle transitions. Implementations must be safe
// for concurrent use and must not block.
type Events interface {
	// AccountMaterialized fires once per successful Authenticate call.
	AccountMaterialized(username string)
	// AccountProvisioned fires when the new-account branch of Provision
	// completes.
	AccountProvisioned(username string)
	// ProvisionFailed fires when Provision aborts; stage is the last step
	// that completed.
	ProvisionFailed(username string, stage Stage)
}

type nopEvents struct{}

func (nopEvents) AccountMaterialized(string)    {}
func (nopEvents) AccountProvisioned(string)     {}
func (nopEvents) ProvisionFailed(string, Stage) {}
