package services

import "github.com/dmitrijs2005/tenantkeeper/internal/server/models"

// Stage is a step of the provisioning workflow. Steps run in declaration
// order and nothing is rolled back when a later one fails.
type Stage int

const (
	StageNone          Stage = iota // nothing done, e.g. the lock was not obtained
	StageChecked                    // existence checked
	StageAccountSaved               // account upserted
	StageProgressSaved              // progress record created (new accounts only)
	StageSchemaCreated              // tenant schema created (new accounts only)
	StageMigrated                   // tenant migrations applied (new accounts only)
)

var stageNames = [...]string{"none", "checked", "account_saved", "progress_saved", "schema_created", "migrated"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// ProvisionReport tells the caller how far Provision got. It is returned on
// failure as well, so a retry or compensation layer can act on Stage without
// inspecting the database.
type ProvisionReport struct {
	// Account is the saved account, nil before StageAccountSaved.
	Account *models.Account
	// New is true when the username did not exist at the existence check.
	New   bool
	Stage Stage
}

// Complete reports whether every step required for this account ran.
func (r *ProvisionReport) Complete() bool {
	if r.New {
		return r.Stage == StageMigrated
	}
	return r.Stage == StageAccountSaved
}
